// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/simlink/lib/wiretrace"
)

func traceCommand() *command {
	var (
		inbound bool
		asHex   bool
	)
	return &command{
		name:    "trace",
		summary: "Print a recorded link trace",
		description: `Print the records of a trace written with --trace, one per line:
offset from the first record, direction, and the bytes.`,
		usage: "simlink trace [flags] <file>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("trace", pflag.ContinueOnError)
			flagSet.BoolVar(&inbound, "inbound", false, "write only the concatenated inbound bytes, unformatted")
			flagSet.BoolVar(&asHex, "hex", false, "show bytes as hex instead of quoted text")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one trace file, got %d arguments", len(args))
			}
			records, err := wiretrace.ReadFile(args[0])
			if err != nil {
				return err
			}
			if inbound {
				_, err := os.Stdout.Write(wiretrace.InboundStream(records))
				return err
			}
			writeTrace(os.Stdout, records, asHex)
			return nil
		},
	}
}

func writeTrace(w io.Writer, records []wiretrace.Record, asHex bool) {
	for _, record := range records {
		offset := record.At.Sub(records[0].At)
		data := strconv.Quote(string(record.Data))
		if asHex {
			data = hex.EncodeToString(record.Data)
		}
		fmt.Fprintf(w, "%10.3fs %s %s\n", offset.Seconds(), record.Direction, data)
	}
}
