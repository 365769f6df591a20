// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simh

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Register identifies a Z80 register pair in the "examine state" dump.
type Register int

const (
	RegisterPC Register = iota
	RegisterSP
	RegisterAF
	RegisterBC
	RegisterDE
	RegisterHL
	RegisterIX
	RegisterIY
	RegisterAF1
	RegisterBC1
	RegisterDE1
	RegisterHL1
	RegisterIR

	registerCount
)

// registerNames are the line prefixes SIMH prints, indexed by Register.
var registerNames = [registerCount]string{
	RegisterPC:  "PC",
	RegisterSP:  "SP",
	RegisterAF:  "AF",
	RegisterBC:  "BC",
	RegisterDE:  "DE",
	RegisterHL:  "HL",
	RegisterIX:  "IX",
	RegisterIY:  "IY",
	RegisterAF1: "AF1",
	RegisterBC1: "BC1",
	RegisterDE1: "DE1",
	RegisterHL1: "HL1",
	RegisterIR:  "IR",
}

// registerAliases maps the debugger's names for the shadow registers
// onto SIMH's.
var registerAliases = map[string]Register{
	"AF'": RegisterAF1, "AF2": RegisterAF1,
	"BC'": RegisterBC1, "BC2": RegisterBC1,
	"DE'": RegisterDE1, "DE2": RegisterDE1,
	"HL'": RegisterHL1, "HL2": RegisterHL1,
}

func (r Register) String() string {
	if r < 0 || r >= registerCount {
		return fmt.Sprintf("Register(%d)", int(r))
	}
	return registerNames[r]
}

// Registers returns every register in dump order.
func Registers() []Register {
	registers := make([]Register, registerCount)
	for i := range registers {
		registers[i] = Register(i)
	}
	return registers
}

// ParseRegisterName resolves a register name, case-insensitively.
// Shadow registers may be written "AF'", "AF2", or "AF1".
func ParseRegisterName(name string) (Register, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, known := range registerNames {
		if upper == known {
			return Register(i), nil
		}
	}
	if register, ok := registerAliases[upper]; ok {
		return register, nil
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

// IsRegisterDump reports whether text contains at least one register
// line, i.e. looks like "examine state" output.
func IsRegisterDump(text string) bool {
	for line := range strings.Lines(text) {
		name, _, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && slices.Contains(registerNames[:], name) {
			return true
		}
	}
	return false
}

// RegisterDecoder extracts register values from "examine state" text.
// The dump layout is fixed for a simulator, so the line index of each
// register is cached after the first lookup and only rescanned when the
// cached line no longer carries that register.
//
// A RegisterDecoder is safe for concurrent use.
type RegisterDecoder struct {
	mu sync.Mutex
	// lineIndex holds index+1 per register; zero means not yet found.
	lineIndex [registerCount]int
}

// ParseRegister returns the value of the named register in state.
func (d *RegisterDecoder) ParseRegister(state, name string) (uint16, error) {
	register, err := ParseRegisterName(name)
	if err != nil {
		return 0, err
	}
	return d.Parse(state, register)
}

// Parse returns the value of register in state.
func (d *RegisterDecoder) Parse(state string, register Register) (uint16, error) {
	if register < 0 || register >= registerCount {
		return 0, fmt.Errorf("unknown register %v", register)
	}
	lines := strings.Split(state, "\n")
	prefix := registerNames[register] + ":"

	d.mu.Lock()
	index := d.lineIndex[register] - 1
	if index < 0 || index >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[index]), prefix) {
		index = -1
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), prefix) {
				index = i
				break
			}
		}
		d.lineIndex[register] = index + 1
	}
	d.mu.Unlock()

	if index < 0 {
		return 0, fmt.Errorf("register %s not found in simulator state", register)
	}
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(lines[index]), prefix))
	if len(fields) == 0 {
		return 0, fmt.Errorf("register %s has no value", register)
	}
	value, err := strconv.ParseUint(fields[0], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing register %s: %w", register, err)
	}
	return uint16(value), nil
}

// ParseAll decodes every register present in state. Registers missing
// from the dump are omitted.
func (d *RegisterDecoder) ParseAll(state string) map[Register]uint16 {
	values := make(map[Register]uint16, registerCount)
	for _, register := range Registers() {
		if value, err := d.Parse(state, register); err == nil {
			values[register] = value
		}
	}
	return values
}
