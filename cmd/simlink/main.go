// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// simlink is a diagnostic client for simulator debug links. It runs
// console commands against a SIMH remote console, shows registers from
// SIMH or a ZX Next over DZRP, and prints recorded link traces.
//
// Connection settings come from a YAML or JSONC file (see lib/config).
// Any subcommand that opens a link accepts --trace to record the raw
// traffic, which "simlink trace" reads back.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/simlink/dzrp"
	"github.com/bureau-foundation/simlink/lib/version"
	"github.com/bureau-foundation/simlink/transport"
	"github.com/bureau-foundation/simlink/zxnext"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Handle --version before anything else.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("simlink %s\n", version.Info())
		return nil
	}
	return root().execute(os.Args[1:])
}

func root() *command {
	return &command{
		name: "simlink",
		description: `simlink drives instruction-set simulators over a byte stream: the
SIMH remote console (text) and the DeZog remote protocol spoken by
the ZX Next (binary).

Connection settings come from the file named by --config or
$SIMLINK_CONFIG; without either, built-in defaults apply.`,
		subcommands: []*command{
			execCommand(),
			consoleCommand(),
			regsCommand(),
			dzrpInfoCommand(),
			traceCommand(),
			versionCommand(),
		},
	}
}

func regsCommand() *command {
	var (
		flags  connectionFlags
		target string
	)
	return &command{
		name:    "regs",
		summary: "Show CPU registers",
		usage:   "simlink regs [--target simh|zxnext] [flags]",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("regs", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			flagSet.StringVar(&target, "target", "simh", "simulator to query: simh or zxnext")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			switch target {
			case "simh":
				return regsSIMH(ctx, &flags, os.Stdout)
			case "zxnext":
				return regsZXNext(ctx, &flags, os.Stdout)
			default:
				return fmt.Errorf("--target must be simh or zxnext (got %q)", target)
			}
		},
	}
}

func dzrpInfoCommand() *command {
	var (
		flags     connectionFlags
		listPorts bool
	)
	return &command{
		name:    "dzrp-info",
		summary: "Handshake with a ZX Next and show machine information",
		usage:   "simlink dzrp-info [--list-ports] [flags]",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dzrp-info", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			flagSet.BoolVar(&listPorts, "list-ports", false, "list serial devices for zxnext.transport=serial and exit")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if listPorts {
				return writeSerialPorts(os.Stdout, transport.SerialPorts)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return withZXNext(ctx, &flags, func(ctx context.Context, client *zxnext.Client, info dzrp.InitResponse) error {
				return writeMachineInfo(ctx, client, info, os.Stdout)
			})
		},
	}
}

func versionCommand() *command {
	return &command{
		name:    "version",
		summary: "Show version information",
		run: func(args []string) error {
			fmt.Printf("simlink %s\n", version.Full())
			fmt.Printf("  DZRP: %s\n", dzrp.ProtocolVersion)
			return nil
		},
	}
}
