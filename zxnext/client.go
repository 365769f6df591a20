// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package zxnext

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/simlink/correlate"
	"github.com/bureau-foundation/simlink/dzrp"
	"github.com/bureau-foundation/simlink/lib/clock"
	"github.com/bureau-foundation/simlink/lib/version"
	"github.com/bureau-foundation/simlink/transport"
)

// Options configures a Client.
type Options struct {
	Logger *slog.Logger
	Clock  clock.Clock

	// Sink receives every stop notification and the connection
	// failure. Optional.
	Sink correlate.Sink

	// Tap observes raw link traffic.
	Tap correlate.Tap

	// Timeout bounds each request. Zero selects
	// correlate.DefaultFrameTimeout.
	Timeout time.Duration
}

// Stop describes why the remote stopped executing.
type Stop struct {
	Reason  dzrp.BreakReason
	Address uint16
	Text    string
}

func (s Stop) String() string {
	if s.Text != "" {
		return fmt.Sprintf("%s at 0x%04X: %s", s.Reason, s.Address, s.Text)
	}
	return fmt.Sprintf("%s at 0x%04X", s.Reason, s.Address)
}

// Client is a debugger connection to a ZX Next.
type Client struct {
	engine *correlate.FrameEngine
	logger *slog.Logger
	sink   correlate.Sink

	mu      sync.Mutex
	waiters []chan Stop
}

// New returns a Client on link. Call Run to start I/O, then Init.
func New(link transport.Link, options Options) *Client {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{logger: logger, sink: options.Sink}
	c.engine = correlate.NewFrame(link, correlate.FrameOptions{
		Options: correlate.Options{
			Logger: logger,
			Clock:  options.Clock,
			Sink:   c,
			Tap:    options.Tap,
		},
		Timeout: options.Timeout,
	})
	return c
}

// Run performs link I/O until the connection ends.
func (c *Client) Run(ctx context.Context) error {
	return c.engine.Run(ctx)
}

// Close drops pending requests and closes the link.
func (c *Client) Close() error {
	return c.engine.Close()
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.engine.Done()
}

// Engine returns the underlying correlation engine.
func (c *Client) Engine() *correlate.FrameEngine {
	return c.engine
}

// OnStop implements correlate.Sink. The stop completes a pending
// Continue and is forwarded to the configured sink.
func (c *Client) OnStop(reason dzrp.BreakReason, address uint16, text string) {
	stop := Stop{Reason: reason, Address: address, Text: text}
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, waiter := range waiters {
		waiter <- stop
	}
	if c.sink != nil {
		c.sink.OnStop(reason, address, text)
	}
}

// OnProtocolError implements correlate.Sink.
func (c *Client) OnProtocolError(err error) {
	if c.sink != nil {
		c.sink.OnProtocolError(err)
	}
}

// Init performs the CMD_INIT handshake and checks that the remote
// speaks a compatible protocol version.
func (c *Client) Init(ctx context.Context) (dzrp.InitResponse, error) {
	payload, err := c.engine.Call(ctx, dzrp.OpInit, dzrp.EncodeInitPayload(dzrp.ProtocolVersion, version.Handshake()))
	if err != nil {
		return dzrp.InitResponse{}, fmt.Errorf("CMD_INIT: %w", err)
	}
	response, err := dzrp.ParseInitResponse(payload)
	if err != nil {
		return dzrp.InitResponse{}, err
	}
	if err := response.CheckCompatible(dzrp.ProtocolVersion); err != nil {
		return response, err
	}
	c.logger.Info("connected to DZRP remote",
		"program", response.ProgramName,
		"version", response.Version.String())
	return response, nil
}

// Shutdown tells the remote the session is over and closes the
// connection.
func (c *Client) Shutdown(ctx context.Context) error {
	defer c.engine.Close()
	if _, err := c.engine.Call(ctx, dzrp.OpClose, nil); err != nil {
		return fmt.Errorf("CMD_CLOSE: %w", err)
	}
	return nil
}

// Registers reads the CPU registers.
func (c *Client) Registers(ctx context.Context) (Registers, error) {
	payload, err := c.engine.Call(ctx, dzrp.OpGetRegisters, nil)
	if err != nil {
		return Registers{}, fmt.Errorf("CMD_GET_REGISTERS: %w", err)
	}
	return parseRegisters(payload)
}

// SetRegister writes a register. 8-bit registers use the low byte of
// value.
func (c *Client) SetRegister(ctx context.Context, register Register, value uint16) error {
	if register >= registerCount {
		return fmt.Errorf("unknown register %v", register)
	}
	_, err := c.engine.Call(ctx, dzrp.OpSetRegister, []byte{byte(register), byte(value), byte(value >> 8)})
	return err
}

// maxTemporaryBreakpoints is the number of one-shot breakpoints
// CMD_CONTINUE carries.
const maxTemporaryBreakpoints = 2

// Continue resumes execution and blocks until the remote stops. Up to
// two temporary breakpoints may be given; they are removed by the
// remote once execution stops.
func (c *Client) Continue(ctx context.Context, temporary ...uint16) (Stop, error) {
	if len(temporary) > maxTemporaryBreakpoints {
		return Stop{}, fmt.Errorf("CMD_CONTINUE takes at most %d temporary breakpoints, got %d", maxTemporaryBreakpoints, len(temporary))
	}
	payload := make([]byte, 0, 11)
	for i := range maxTemporaryBreakpoints {
		if i < len(temporary) {
			payload = append(payload, 1, byte(temporary[i]), byte(temporary[i]>>8))
		} else {
			payload = append(payload, 0, 0, 0)
		}
	}
	// Alternate command 0 (plain continue), then four unused bytes.
	payload = append(payload, 0, 0, 0, 0, 0)

	// The stop notification may arrive before the acknowledgment, so
	// the waiter is registered first.
	stopped := make(chan Stop, 1)
	c.mu.Lock()
	c.waiters = append(c.waiters, stopped)
	c.mu.Unlock()

	if _, err := c.engine.Call(ctx, dzrp.OpContinue, payload); err != nil {
		c.dropWaiter(stopped)
		return Stop{}, fmt.Errorf("CMD_CONTINUE: %w", err)
	}
	select {
	case stop := <-stopped:
		return stop, nil
	case <-ctx.Done():
		c.dropWaiter(stopped)
		return Stop{}, ctx.Err()
	case <-c.engine.Done():
		c.dropWaiter(stopped)
		return Stop{}, c.engine.Err()
	}
}

func (c *Client) dropWaiter(target chan Stop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, waiter := range c.waiters {
		if waiter == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// Pause stops execution. A pending Continue returns once the remote
// reports the stop.
func (c *Client) Pause(ctx context.Context) error {
	_, err := c.engine.Call(ctx, dzrp.OpPause, nil)
	return err
}

// AddBreakpoint pauses execution and sets a breakpoint at address.
// The condition may be empty. It returns the remote's breakpoint ID.
func (c *Client) AddBreakpoint(ctx context.Context, address uint16, condition string) (uint16, error) {
	if err := c.Pause(ctx); err != nil {
		return 0, err
	}
	payload := dzrp.AppendCString([]byte{byte(address), byte(address >> 8)}, condition)
	response, err := c.engine.Call(ctx, dzrp.OpAddBreakpoint, payload)
	if err != nil {
		return 0, fmt.Errorf("CMD_ADD_BREAKPOINT: %w", err)
	}
	if len(response) < 2 {
		return 0, fmt.Errorf("CMD_ADD_BREAKPOINT response of %d bytes, want 2", len(response))
	}
	id := binary.LittleEndian.Uint16(response)
	if id == 0 {
		return 0, errors.New("remote has no breakpoint left")
	}
	return id, nil
}

// RemoveBreakpoint pauses execution and removes a breakpoint by ID.
func (c *Client) RemoveBreakpoint(ctx context.Context, id uint16) error {
	if err := c.Pause(ctx); err != nil {
		return err
	}
	_, err := c.engine.Call(ctx, dzrp.OpRemoveBreakpoint, []byte{byte(id), byte(id >> 8)})
	return err
}

// Access selects which memory accesses trigger a watchpoint.
type Access byte

const (
	AccessRead  Access = 0x01
	AccessWrite Access = 0x02
)

// ParseAccess converts "r", "w", or "rw" to an Access.
func ParseAccess(text string) (Access, error) {
	var access Access
	for _, r := range text {
		switch r {
		case 'r', 'R':
			access |= AccessRead
		case 'w', 'W':
			access |= AccessWrite
		default:
			return 0, fmt.Errorf("invalid watchpoint access %q", text)
		}
	}
	return access, nil
}

// AddWatchpoint watches size bytes starting at address.
func (c *Client) AddWatchpoint(ctx context.Context, address, size uint16, access Access, condition string) error {
	payload := []byte{byte(address), byte(address >> 8), byte(size), byte(size >> 8), byte(access)}
	_, err := c.engine.Call(ctx, dzrp.OpAddWatchpoint, dzrp.AppendCString(payload, condition))
	return err
}

// RemoveWatchpoint removes the watchpoint on the given range.
func (c *Client) RemoveWatchpoint(ctx context.Context, address, size uint16) error {
	_, err := c.engine.Call(ctx, dzrp.OpRemoveWatchpoint,
		[]byte{byte(address), byte(address >> 8), byte(size), byte(size >> 8)})
	return err
}

// ReadMemory reads size bytes at address.
func (c *Client) ReadMemory(ctx context.Context, address, size uint16) ([]byte, error) {
	data, err := c.engine.Call(ctx, dzrp.OpReadMem,
		[]byte{0, byte(address), byte(address >> 8), byte(size), byte(size >> 8)})
	if err != nil {
		return nil, fmt.Errorf("CMD_READ_MEM: %w", err)
	}
	if len(data) != int(size) {
		return nil, fmt.Errorf("CMD_READ_MEM returned %d bytes, want %d", len(data), size)
	}
	return data, nil
}

// WriteMemory writes data at address.
func (c *Client) WriteMemory(ctx context.Context, address uint16, data []byte) error {
	payload := append([]byte{0, byte(address), byte(address >> 8)}, data...)
	_, err := c.engine.Call(ctx, dzrp.OpWriteMem, payload)
	return err
}

// BankSize is the size of a ZX Next memory bank.
const BankSize = 0x2000

// WriteBank writes data to an 8K bank.
func (c *Client) WriteBank(ctx context.Context, bank byte, data []byte) error {
	if len(data) > BankSize {
		return fmt.Errorf("bank data of %d bytes exceeds %d", len(data), BankSize)
	}
	_, err := c.engine.Call(ctx, dzrp.OpWriteBank, append([]byte{bank}, data...))
	return err
}

// Slots returns the bank mapped into each of the eight 8K slots.
func (c *Client) Slots(ctx context.Context) ([8]byte, error) {
	var slots [8]byte
	data, err := c.engine.Call(ctx, dzrp.OpGetSlots, nil)
	if err != nil {
		return slots, fmt.Errorf("CMD_GET_SLOTS: %w", err)
	}
	if len(data) < len(slots) {
		return slots, fmt.Errorf("CMD_GET_SLOTS returned %d bytes, want %d", len(data), len(slots))
	}
	copy(slots[:], data)
	return slots, nil
}

// TbblueRegister reads a TBBlue (Next) register.
func (c *Client) TbblueRegister(ctx context.Context, register byte) (byte, error) {
	data, err := c.engine.Call(ctx, dzrp.OpGetTbblueReg, []byte{register})
	if err != nil {
		return 0, fmt.Errorf("CMD_GET_TBBLUE_REG: %w", err)
	}
	if len(data) < 1 {
		return 0, errors.New("CMD_GET_TBBLUE_REG returned no value")
	}
	return data[0], nil
}

// SetBorder sets the border color.
func (c *Client) SetBorder(ctx context.Context, color byte) error {
	_, err := c.engine.Call(ctx, dzrp.OpSetBorder, []byte{color})
	return err
}
