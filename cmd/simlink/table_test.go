// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/simlink/lib/wiretrace"
	"github.com/bureau-foundation/simlink/zxnext"
)

func TestRenderRegisters(t *testing.T) {
	t.Parallel()

	registers := []registerValue{
		{"PC", 0x0100}, {"SP", 0xFFF0}, {"AF", 0x7008}, {"BC", 0x0200},
		{"DE", 0}, {"HL", 0x1234},
	}
	table := renderRegisters("SIMH", registers)

	for _, want := range []string{"SIMH", "PC", "0100", "FFF0", "7008", "HL", "1234", "0000"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
	// Title, two register rows, and the top and bottom border.
	if lines := strings.Count(table, "\n") + 1; lines != 5 {
		t.Errorf("table has %d lines, want 5:\n%s", lines, table)
	}
	if width := lipgloss.Width(table); width == 0 {
		t.Error("table has no width")
	}
}

func TestRegisterTable(t *testing.T) {
	t.Parallel()

	values, err := registerTable(zxnext.Registers{PC: 0x8000, SP: 0x5FFF, AF: 0x44FF, I: 0x3F, R: 0x12, IM: 1})
	if err != nil {
		t.Fatalf("registerTable: %v", err)
	}
	if len(values) != len(zxnextRegisters) {
		t.Fatalf("%d values for %d registers", len(values), len(zxnextRegisters))
	}
	byName := make(map[string]uint16)
	for _, value := range values {
		byName[value.name] = value.value
	}
	for name, want := range map[string]uint16{"PC": 0x8000, "SP": 0x5FFF, "AF": 0x44FF, "IR": 0x3F12, "IM": 1} {
		if byName[name] != want {
			t.Errorf("%s = %04X, want %04X", name, byName[name], want)
		}
	}
}

func TestWriteTrace(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []wiretrace.Record{
		{Direction: wiretrace.Outbound, At: start, Data: []byte("step\n#\n")},
		{Direction: wiretrace.Inbound, At: start.Add(1500 * time.Millisecond), Data: []byte{0x05, 0x00}},
	}

	var text bytes.Buffer
	writeTrace(&text, records, false)
	want := "     0.000s => \"step\\n#\\n\"\n     1.500s <= \"\\x05\\x00\"\n"
	if text.String() != want {
		t.Errorf("text trace =\n%s\nwant\n%s", text.String(), want)
	}

	var hexTrace bytes.Buffer
	writeTrace(&hexTrace, records[1:], true)
	if hexTrace.String() != "     0.000s <= 0500\n" {
		t.Errorf("hex trace = %q", hexTrace.String())
	}
}

func TestWriteSerialPorts(t *testing.T) {
	t.Parallel()

	errNoDriver := errors.New("no serial driver")
	tests := []struct {
		name    string
		ports   []string
		err     error
		want    string
		wantErr bool
	}{
		{name: "ports", ports: []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, want: "/dev/ttyUSB0\n/dev/ttyUSB1\n"},
		{name: "none", want: "no serial ports found\n"},
		{name: "error", err: errNoDriver, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var buffer bytes.Buffer
			err := writeSerialPorts(&buffer, func() ([]string, error) { return test.ports, test.err })
			if test.wantErr {
				if !errors.Is(err, errNoDriver) {
					t.Fatalf("writeSerialPorts = %v, want %v", err, errNoDriver)
				}
				return
			}
			if err != nil {
				t.Fatalf("writeSerialPorts: %v", err)
			}
			if buffer.String() != test.want {
				t.Errorf("output %q, want %q", buffer.String(), test.want)
			}
		})
	}
}
