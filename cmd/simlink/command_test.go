// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"slices"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testTree(ran *[]string, verbose *bool) *command {
	leaf := &command{
		name:    "leaf",
		summary: "a leaf",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("leaf", pflag.ContinueOnError)
			flagSet.BoolVarP(verbose, "verbose", "v", false, "")
			return flagSet
		},
		run: func(args []string) error {
			*ran = append(*ran, args...)
			return nil
		},
	}
	return &command{
		name: "root",
		subcommands: []*command{
			{name: "group", subcommands: []*command{leaf}},
		},
	}
}

func TestCommandDispatch(t *testing.T) {
	t.Parallel()

	var ran []string
	var verbose bool
	if err := testTree(&ran, &verbose).execute([]string{"group", "leaf", "-v", "a", "b"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !verbose {
		t.Error("flag not parsed")
	}
	if !slices.Equal(ran, []string{"a", "b"}) {
		t.Errorf("run received %q", ran)
	}
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"nope"}, `unknown command "nope"`},
		{"missing subcommand", nil, "subcommand required"},
		{"unknown flag", []string{"group", "leaf", "--nope"}, "root group leaf --help"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var ran []string
			var verbose bool
			err := testTree(&ran, &verbose).execute(test.args)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("execute(%q) = %v, want error containing %q", test.args, err, test.want)
			}
			if len(ran) != 0 {
				t.Error("run called despite the error")
			}
		})
	}
}

func TestCommandHelp(t *testing.T) {
	t.Parallel()

	var ran []string
	var verbose bool
	for _, args := range [][]string{{"--help"}, {"group", "leaf", "-h"}} {
		if err := testTree(&ran, &verbose).execute(args); err != nil {
			t.Errorf("execute(%q) = %v", args, err)
		}
	}
	if len(ran) != 0 {
		t.Error("help ran the command")
	}
}

func TestRootCommands(t *testing.T) {
	t.Parallel()

	var names []string
	for _, sub := range root().subcommands {
		names = append(names, sub.name)
		if sub.summary == "" {
			t.Errorf("%s has no summary", sub.name)
		}
	}
	want := []string{"exec", "console", "regs", "dzrp-info", "trace", "version"}
	if !slices.Equal(names, want) {
		t.Errorf("subcommands = %q, want %q", names, want)
	}
}

func TestPrintHelp(t *testing.T) {
	t.Parallel()

	var help strings.Builder
	traceCommand().printHelp(&help)
	for _, want := range []string{"simlink trace [flags] <file>", "--inbound", "--hex"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("help missing %q:\n%s", want, help.String())
		}
	}
}
