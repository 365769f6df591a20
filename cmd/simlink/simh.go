// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/simlink/correlate"
	"github.com/bureau-foundation/simlink/simh"
)

// withSIMH connects to the configured SIMH console, waits for its
// banner, and calls fn. The connection is closed when fn returns.
func withSIMH(ctx context.Context, flags *connectionFlags, noBanner bool, console correlate.ConsoleSink, fn func(context.Context, *session, *simh.Client) error) error {
	s, err := flags.open()
	if err != nil {
		return err
	}
	link, err := s.dialSIMH(ctx)
	if err != nil {
		return firstError(err, s.close)
	}
	client := simh.New(link, simh.Options{
		Logger:         s.logger,
		Tap:            s.tap(),
		Console:        console,
		CommandTimeout: s.config.SIMH.CommandTimeout(),
		WelcomeTimeout: s.config.SIMH.BannerTimeout(),
		NoBanner:       noBanner,
	})
	stop := start(ctx, client)

	err = client.WaitConnected(ctx)
	if err == nil {
		err = fn(ctx, s, client)
	}
	err = firstError(err, stop)
	return firstError(err, s.close)
}

// startupCommands returns the configured startup commands, or the
// built-in N8VEM set when none are configured.
func startupCommands(configured []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return simh.DefaultStartupCommands
}

func execCommand() *command {
	var (
		flags    connectionFlags
		startup  bool
		noBanner bool
	)
	return &command{
		name:    "exec",
		summary: "Run console commands on a SIMH simulator",
		description: `Connect to a SIMH remote console, run each argument as a console
command in order, and print each command's output.`,
		usage: "simlink exec [flags] <command>...",
		examples: []example{
			{"Show the CPU registers", `simlink exec "examine state"`},
			{"Boot the configured machine, then dump low memory", `simlink exec --startup "examine 0-1F"`},
		},
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("exec", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			flagSet.BoolVar(&startup, "startup", false, "run simh.startup_commands before the given commands")
			flagSet.BoolVar(&noBanner, "no-banner", false, "do not wait for a connection banner")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) == 0 {
				return errors.New("at least one console command is required")
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return withSIMH(ctx, &flags, noBanner, nil, func(ctx context.Context, s *session, client *simh.Client) error {
				if startup {
					if err := client.Initialize(ctx, startupCommands(s.config.SIMH.StartupCommands)); err != nil {
						return err
					}
				}
				return execCommands(ctx, client, args, os.Stdout)
			})
		},
	}
}

// execCommands runs each command and writes its output to w.
func execCommands(ctx context.Context, client *simh.Client, commands []string, w io.Writer) error {
	for _, command := range commands {
		output, err := client.Exec(ctx, command)
		if err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}
		if output != "" {
			fmt.Fprintln(w, output)
		}
	}
	return nil
}

func consoleCommand() *command {
	var (
		flags    connectionFlags
		noBanner bool
	)
	return &command{
		name:    "console",
		summary: "Interactive SIMH console session",
		description: `Connect to a SIMH remote console and run commands read from standard
input, one per line. Output the simulator prints on its own is shown
as it arrives.

Lines starting with "." are local commands:
  .interrupt   stop a running program (sends Ctrl-E)
  .quit        detach from the simulator and exit`,
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("console", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			flagSet.BoolVar(&noBanner, "no-banner", false, "do not wait for a connection banner")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			out := &lockedWriter{w: os.Stdout}
			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			return withSIMH(ctx, &flags, noBanner, out, func(ctx context.Context, _ *session, client *simh.Client) error {
				return runConsole(ctx, client, os.Stdin, out, interactive)
			})
		},
	}
}

// lockedWriter serializes command output with unsolicited console
// output arriving from the engine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// OnConsoleOutput implements correlate.ConsoleSink.
func (l *lockedWriter) OnConsoleOutput(text string) {
	fmt.Fprintln(l, text)
}

const consolePrompt = "sim> "

// runConsole reads commands from in until end of input, ".quit", or
// the connection ending. The prompt is written only when interactive.
func runConsole(ctx context.Context, client *simh.Client, in io.Reader, out io.Writer, interactive bool) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if interactive {
			fmt.Fprint(out, consolePrompt)
		}
		var line string
		var ok bool
		select {
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return client.Engine().Err()
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ".interrupt":
			if err := client.Pause(); err != nil {
				return err
			}
			continue
		case ".quit":
			return client.Disconnect(ctx)
		}

		output, err := client.Exec(ctx, line)
		var rejected *correlate.RejectedError
		switch {
		case errors.As(err, &rejected):
			fmt.Fprintln(out, rejected.Response)
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		case output != "":
			fmt.Fprintln(out, output)
		}
	}
}

func regsSIMH(ctx context.Context, flags *connectionFlags, w io.Writer) error {
	return withSIMH(ctx, flags, false, nil, func(ctx context.Context, _ *session, client *simh.Client) error {
		values, err := client.RegisterValues(ctx)
		if err != nil {
			return err
		}
		var registers []registerValue
		for _, register := range simh.Registers() {
			if value, ok := values[register]; ok {
				registers = append(registers, registerValue{register.String(), value})
			}
		}
		fmt.Fprintln(w, renderRegisters("SIMH", registers))
		return nil
	})
}
