// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/simlink/correlate"
	"github.com/bureau-foundation/simlink/lib/clock"
	"github.com/bureau-foundation/simlink/transport"
)

// DefaultStartupCommands configure an N8VEM SBC machine and start it.
var DefaultStartupCommands = []string{
	"echo Startup",
	"attach n8vem0 SBC_simh.rom",
	"set sio port=68/0/00/00/00/F/00/T",
	"set sio port=6D/0/01/00/20/F/00/F",
	"go",
}

// Options configures a Client.
type Options struct {
	Logger *slog.Logger
	Clock  clock.Clock

	// Sink receives the connection failure. SIMH reports stops as
	// console text, so OnStop is never called.
	Sink correlate.Sink

	// Console receives output that answers no command.
	Console correlate.ConsoleSink

	// Tap observes raw link traffic.
	Tap correlate.Tap

	// CommandTimeout and WelcomeTimeout follow correlate.TextOptions.
	CommandTimeout time.Duration
	WelcomeTimeout time.Duration

	// NoBanner skips waiting for the connection banner.
	NoBanner bool
}

// Client is a debugger connection to a SIMH remote console.
type Client struct {
	engine  *correlate.TextEngine
	logger  *slog.Logger
	decoder RegisterDecoder

	mu    sync.Mutex
	state string // cached "examine state" output; empty when stale
}

// New returns a Client on link. Call Run to start I/O.
func New(link transport.Link, options Options) *Client {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := correlate.NewText(link, correlate.TextOptions{
		Options: correlate.Options{
			Logger: logger,
			Clock:  options.Clock,
			Sink:   options.Sink,
			Tap:    options.Tap,
		},
		CommandTimeout: options.CommandTimeout,
		WelcomeTimeout: options.WelcomeTimeout,
		NoBanner:       options.NoBanner,
		Console:        options.Console,
	})
	return &Client{engine: engine, logger: logger}
}

// Run performs link I/O until the connection ends. See
// correlate.Engine.Run.
func (c *Client) Run(ctx context.Context) error {
	return c.engine.Run(ctx)
}

// Close drops pending commands and closes the link.
func (c *Client) Close() error {
	return c.engine.Close()
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.engine.Done()
}

// Engine returns the underlying correlation engine.
func (c *Client) Engine() *correlate.TextEngine {
	return c.engine
}

// WaitConnected blocks until the connection banner has arrived.
func (c *Client) WaitConnected(ctx context.Context) error {
	select {
	case <-c.engine.Connected():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.engine.Done():
		return c.engine.Err()
	}
}

// Initialize runs the startup commands in order, waiting for each. A
// run command such as "go" is sent without waiting, since it completes
// only when the program stops.
func (c *Client) Initialize(ctx context.Context, commands []string) error {
	if err := c.WaitConnected(ctx); err != nil {
		return err
	}
	for _, command := range commands {
		if isRunCommand(command) {
			c.invalidate()
			if err := c.engine.Send(runRequest(command), nil); err != nil {
				return fmt.Errorf("startup command %q: %w", command, err)
			}
			continue
		}
		if _, err := c.engine.Call(ctx, correlate.TextRequest{Command: command}); err != nil {
			return fmt.Errorf("startup command %q: %w", command, err)
		}
	}
	c.logger.Info("simulator initialized", "commands", len(commands))
	return nil
}

// Exec runs an arbitrary console command and returns its output. Run
// commands wait for the program to stop.
func (c *Client) Exec(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", errors.New("no command given")
	}
	c.invalidate()
	request := correlate.TextRequest{Command: command}
	if isRunCommand(command) {
		request = runRequest(command)
	}
	return c.engine.Call(ctx, request)
}

func runRequest(command string) correlate.TextRequest {
	return correlate.TextRequest{
		Command:  command,
		Timeout:  correlate.NoTimeout,
		Match:    isStopped,
		Progress: isRunning,
	}
}

// Registers returns the "examine state" dump, from cache when the
// program has not moved since the last read.
func (c *Client) Registers(ctx context.Context) (string, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != "" {
		return state, nil
	}

	state, err := c.engine.Call(ctx, correlate.TextRequest{
		Command: "examine state",
		Match:   IsRegisterDump,
	})
	if err != nil {
		return "", fmt.Errorf("reading registers: %w", err)
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	return state, nil
}

// Register returns one register value, e.g. "PC" or "HL'".
func (c *Client) Register(ctx context.Context, name string) (uint16, error) {
	state, err := c.Registers(ctx)
	if err != nil {
		return 0, err
	}
	return c.decoder.ParseRegister(state, name)
}

// RegisterValues decodes every register from the current dump.
func (c *Client) RegisterValues(ctx context.Context) (map[Register]uint16, error) {
	state, err := c.Registers(ctx)
	if err != nil {
		return nil, err
	}
	return c.decoder.ParseAll(state), nil
}

// SetRegister deposits value into a register.
func (c *Client) SetRegister(ctx context.Context, name string, value uint16) error {
	register, err := ParseRegisterName(name)
	if err != nil {
		return err
	}
	c.invalidate()
	_, err = c.engine.Call(ctx, correlate.TextRequest{
		Command: fmt.Sprintf("deposit %s %04X", register, value),
	})
	return err
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.state = ""
	c.mu.Unlock()
}

// Continue resumes execution and blocks until the simulator stops. It
// returns the stop message, e.g. "Breakpoint, PC: 0100 (NOP)".
func (c *Client) Continue(ctx context.Context) (string, error) {
	c.invalidate()
	return c.engine.Call(ctx, runRequest("go"))
}

// Pause interrupts a running simulation. The pending Continue returns
// the resulting stop message.
func (c *Client) Pause() error {
	return c.engine.Interrupt()
}

// StepInto executes one instruction and returns its disassembly.
func (c *Client) StepInto(ctx context.Context) (string, error) {
	pc, err := c.Register(ctx, "PC")
	if err != nil {
		return "", err
	}
	listing, err := c.engine.Call(ctx, correlate.TextRequest{
		Command: fmt.Sprintf("examine -m %04X", pc),
		Match:   func(text string) bool { return hasAddressLine(text, pc) },
	})
	if err != nil {
		return "", fmt.Errorf("disassembling %04X: %w", pc, err)
	}
	instruction, _ := disassembly(listing, pc)

	c.invalidate()
	if _, err := c.engine.Call(ctx, correlate.TextRequest{Command: "step", Match: isStepped}); err != nil {
		return "", fmt.Errorf("stepping: %w", err)
	}
	return instruction, nil
}

// SetBreakpoint interrupts execution and sets a breakpoint at address.
func (c *Client) SetBreakpoint(ctx context.Context, address uint16) error {
	return c.breakpoint(ctx, "break", address)
}

// ClearBreakpoint interrupts execution and removes the breakpoint at
// address.
func (c *Client) ClearBreakpoint(ctx context.Context, address uint16) error {
	return c.breakpoint(ctx, "nobreak", address)
}

func (c *Client) breakpoint(ctx context.Context, verb string, address uint16) error {
	if err := c.engine.Interrupt(); err != nil {
		return err
	}
	command := fmt.Sprintf("%s %04X", verb, address)
	if _, err := c.engine.Call(ctx, correlate.TextRequest{Command: command}); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}

// ReadMemory reads size bytes starting at address.
func (c *Client) ReadMemory(ctx context.Context, address uint16, size int) ([]byte, error) {
	if size <= 0 {
		return []byte{}, nil
	}
	end := int(address) + size - 1
	if end > 0xFFFF {
		return nil, fmt.Errorf("reading %d bytes at %04X runs past the address space", size, address)
	}
	text, err := c.engine.Call(ctx, correlate.TextRequest{
		Command: fmt.Sprintf("examine %04X-%04X", address, end),
		Match:   func(text string) bool { return hasAddressLine(text, address) },
	})
	if err != nil {
		return nil, fmt.Errorf("reading memory at %04X: %w", address, err)
	}
	return parseMemory(text, address, size)
}

// WriteMemory deposits data starting at address, one byte per command.
func (c *Client) WriteMemory(ctx context.Context, address uint16, data []byte) error {
	if int(address)+len(data) > 0x10000 {
		return fmt.Errorf("writing %d bytes at %04X runs past the address space", len(data), address)
	}
	for i, value := range data {
		command := fmt.Sprintf("deposit %04X %02X", int(address)+i, value)
		if _, err := c.engine.Call(ctx, correlate.TextRequest{Command: command}); err != nil {
			return fmt.Errorf("writing memory at %04X: %w", int(address)+i, err)
		}
	}
	return nil
}

// Disconnect releases the console and closes the connection. A running
// simulation is interrupted first.
func (c *Client) Disconnect(ctx context.Context) error {
	defer c.engine.Close()

	if err := c.engine.Interrupt(); err != nil {
		return err
	}
	if err := c.engine.Send(correlate.TextRequest{Command: "\n", Raw: true, NoResponse: true}, nil); err != nil {
		return err
	}
	if _, err := c.engine.Call(ctx, correlate.TextRequest{Command: "set remote nomaster"}); err != nil {
		return fmt.Errorf("releasing remote console: %w", err)
	}
	c.logger.Info("disconnected from simulator")
	return nil
}
