// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simh

import "testing"

const state = "AF:     7008\nBC:     0200\nDE:     0000\nHL:     1234\nPC:     0100\nSP:     FFF0\n" +
	"IX:     0000\nIY:     0000\nAF1:    0000\nBC1:    1111\nDE1:    2222\nHL1:    3333\nIR:     0A7F"

func TestParseRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want uint16
	}{
		{"AF", 0x7008},
		{"BC", 0x0200},
		{"HL", 0x1234},
		{"pc", 0x0100},
		{"SP", 0xFFF0},
		{"AF1", 0x0000},
		{"BC'", 0x1111},
		{"DE2", 0x2222},
		{"HL1", 0x3333},
		{"IR", 0x0A7F},
	}
	var decoder RegisterDecoder
	for _, test := range tests {
		got, err := decoder.ParseRegister(state, test.name)
		if err != nil {
			t.Errorf("ParseRegister(%q): %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseRegister(%q) = %04X, want %04X", test.name, got, test.want)
		}
	}
}

func TestParseRegisterErrors(t *testing.T) {
	t.Parallel()

	var decoder RegisterDecoder
	if _, err := decoder.ParseRegister(state, "XY"); err == nil {
		t.Error("unknown register accepted")
	}
	if _, err := decoder.ParseRegister("AF: 7008", "BC"); err == nil {
		t.Error("missing register accepted")
	}
	if _, err := decoder.ParseRegister("AF: zzzz", "AF"); err == nil {
		t.Error("non-hex value accepted")
	}
	if _, err := decoder.ParseRegister("AF:", "AF"); err == nil {
		t.Error("empty value accepted")
	}
}

func TestRegisterDecoderLineCache(t *testing.T) {
	t.Parallel()

	var decoder RegisterDecoder
	if _, err := decoder.Parse(state, RegisterHL); err != nil {
		t.Fatal(err)
	}
	if index := decoder.lineIndex[RegisterHL]; index != 4 {
		t.Fatalf("cached index+1 = %d, want 4", index)
	}

	// A dump with a different layout is rescanned rather than misread.
	reordered := "HL:     4321\nAF:     7008"
	got, err := decoder.Parse(reordered, RegisterHL)
	if err != nil || got != 0x4321 {
		t.Fatalf("Parse after layout change = %04X, %v", got, err)
	}
	if index := decoder.lineIndex[RegisterHL]; index != 1 {
		t.Errorf("cache not updated: index+1 = %d, want 1", index)
	}
}

func TestIsRegisterDump(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"AF: 7008\nBC: 0200", true},
		{"examine state\nPC:\t0100", true},
		{"Simulator Running", false},
		{"0100:\tLD A,01H", false},
		{"Breakpoint, PC: 0100 (NOP)", false},
	}
	for _, test := range tests {
		if got := IsRegisterDump(test.text); got != test.want {
			t.Errorf("IsRegisterDump(%q) = %v, want %v", test.text, got, test.want)
		}
	}
}

func TestParseMemory(t *testing.T) {
	t.Parallel()

	text := "examine 0100-0105\n0100:\t21 00\n0102:\t80\n0103:\tc3 10 20"
	got, err := parseMemory(text, 0x0100, 6)
	if err != nil {
		t.Fatalf("parseMemory: %v", err)
	}
	want := []byte{0x21, 0x00, 0x80, 0xC3, 0x10, 0x20}
	if string(got) != string(want) {
		t.Errorf("parseMemory = % X, want % X", got, want)
	}

	if _, err := parseMemory("0100:\t21", 0x0100, 2); err == nil {
		t.Error("missing byte accepted")
	}

	fiveDigit := "examine 0100-0102\n00100:\t3E\n00101:\t01\n00102:\tC9"
	got, err = parseMemory(fiveDigit, 0x0100, 3)
	if err != nil {
		t.Fatalf("parseMemory with five-digit addresses: %v", err)
	}
	if string(got) != string([]byte{0x3E, 0x01, 0xC9}) {
		t.Errorf("parseMemory = % X, want 3E 01 C9", got)
	}
}

func TestAddressLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text        string
		address     uint16
		instruction string
		ok          bool
	}{
		{"examine -m 0100\n0100:\tLD A,01H", 0x0100, "LD A,01H", true},
		{"examine -m 0100\n00100:\tLD A,01H", 0x0100, "LD A,01H", true},
		{"00c75:\tjp 0c62h", 0x0C75, "jp 0c62h", true},
		{"00100:\t3E", 0x0010, "", false},
		{"10100:\tNOP", 0x0100, "", false},
		// Register names are hex-looking but too short to be addresses.
		{"AF:\t0100\nBC:\t0200", 0x00AF, "", false},
		{"Step expired, PC: 00102 (LD B,02H)", 0x0102, "", false},
	}
	for _, test := range tests {
		instruction, ok := disassembly(test.text, test.address)
		if instruction != test.instruction || ok != test.ok {
			t.Errorf("disassembly(%q, %04X) = %q, %v; want %q, %v",
				test.text, test.address, instruction, ok, test.instruction, test.ok)
		}
		if got := hasAddressLine(test.text, test.address); got != test.ok {
			t.Errorf("hasAddressLine(%q, %04X) = %v, want %v", test.text, test.address, got, test.ok)
		}
	}
}

func TestStopAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text    string
		address uint16
		ok      bool
	}{
		{"Breakpoint, PC: 0100 (NOP)", 0x0100, true},
		{"Simulation stopped, PC: fa3c (JP 0)", 0xFA3C, true},
		{"Breakpoint, PC: 00100 (JP 0604h)", 0x0100, true},
		{"Simulation stopped, PC: 00C75 (JP 0C62h)", 0x0C75, true},
		{"Step expired, PC: 0FFFF (RST 38h)", 0xFFFF, true},
		{"Breakpoint, PC: 10000 (NOP)", 0, false},
		{"Simulator Running", 0, false},
	}
	for _, test := range tests {
		address, ok := StopAddress(test.text)
		if address != test.address || ok != test.ok {
			t.Errorf("StopAddress(%q) = %04X, %v; want %04X, %v", test.text, address, ok, test.address, test.ok)
		}
	}
}

func TestIsRunCommand(t *testing.T) {
	t.Parallel()

	for command, want := range map[string]bool{
		"go":          true,
		"GO 100":      true,
		" boot hdsk0": true,
		"step":        false,
		"gopher":      false,
	} {
		if got := isRunCommand(command); got != want {
			t.Errorf("isRunCommand(%q) = %v, want %v", command, got, want)
		}
	}
}
