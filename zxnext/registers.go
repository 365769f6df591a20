// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package zxnext

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Register is the register index used by CMD_SET_REGISTER.
type Register byte

const (
	RegisterPC Register = iota
	RegisterSP
	RegisterAF
	RegisterBC
	RegisterDE
	RegisterHL
	RegisterIX
	RegisterIY
	RegisterAF2
	RegisterBC2
	RegisterDE2
	RegisterHL2
	RegisterIR
	RegisterIM
	RegisterF
	RegisterA
	RegisterC
	RegisterB
	RegisterE
	RegisterD
	RegisterL
	RegisterH
	RegisterIXL
	RegisterIXH
	RegisterIYL
	RegisterIYH
	RegisterF2
	RegisterA2
	RegisterC2
	RegisterB2
	RegisterE2
	RegisterD2
	RegisterL2
	RegisterH2
	RegisterR
	RegisterI

	registerCount
)

var registerNames = [registerCount]string{
	"PC", "SP", "AF", "BC", "DE", "HL", "IX", "IY",
	"AF2", "BC2", "DE2", "HL2", "IR", "IM",
	"F", "A", "C", "B", "E", "D", "L", "H",
	"IXL", "IXH", "IYL", "IYH",
	"F2", "A2", "C2", "B2", "E2", "D2", "L2", "H2",
	"R", "I",
}

func (r Register) String() string {
	if r >= registerCount {
		return fmt.Sprintf("Register(%d)", byte(r))
	}
	return registerNames[r]
}

// ParseRegister resolves a register name, case-insensitively. Shadow
// registers may be written with a trailing "'" or "2".
func ParseRegister(name string) (Register, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if shadow, ok := strings.CutSuffix(upper, "'"); ok {
		upper = shadow + "2"
	}
	for i, known := range registerNames {
		if upper == known {
			return Register(i), nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

// registersSize is the CMD_GET_REGISTERS response length: twelve
// little-endian words followed by R, I, and IM.
const registersSize = 12*2 + 3

// Registers is the CPU state reported by CMD_GET_REGISTERS.
type Registers struct {
	PC, SP             uint16
	AF, BC, DE, HL     uint16
	IX, IY             uint16
	AF2, BC2, DE2, HL2 uint16
	R, I, IM           byte
}

func parseRegisters(payload []byte) (Registers, error) {
	if len(payload) < registersSize {
		return Registers{}, fmt.Errorf("register response of %d bytes, want %d", len(payload), registersSize)
	}
	word := func(index int) uint16 { return binary.LittleEndian.Uint16(payload[index*2:]) }
	return Registers{
		PC: word(0), SP: word(1),
		AF: word(2), BC: word(3), DE: word(4), HL: word(5),
		IX: word(6), IY: word(7),
		AF2: word(8), BC2: word(9), DE2: word(10), HL2: word(11),
		R:  payload[24],
		I:  payload[25],
		IM: payload[26],
	}, nil
}

// Get returns the value of any register, deriving 8-bit registers from
// their pairs.
func (r Registers) Get(register Register) (uint16, error) {
	high := func(v uint16) uint16 { return v >> 8 }
	low := func(v uint16) uint16 { return v & 0xFF }
	switch register {
	case RegisterPC:
		return r.PC, nil
	case RegisterSP:
		return r.SP, nil
	case RegisterAF:
		return r.AF, nil
	case RegisterBC:
		return r.BC, nil
	case RegisterDE:
		return r.DE, nil
	case RegisterHL:
		return r.HL, nil
	case RegisterIX:
		return r.IX, nil
	case RegisterIY:
		return r.IY, nil
	case RegisterAF2:
		return r.AF2, nil
	case RegisterBC2:
		return r.BC2, nil
	case RegisterDE2:
		return r.DE2, nil
	case RegisterHL2:
		return r.HL2, nil
	case RegisterIR:
		return uint16(r.I)<<8 | uint16(r.R), nil
	case RegisterIM:
		return uint16(r.IM), nil
	case RegisterF:
		return low(r.AF), nil
	case RegisterA:
		return high(r.AF), nil
	case RegisterC:
		return low(r.BC), nil
	case RegisterB:
		return high(r.BC), nil
	case RegisterE:
		return low(r.DE), nil
	case RegisterD:
		return high(r.DE), nil
	case RegisterL:
		return low(r.HL), nil
	case RegisterH:
		return high(r.HL), nil
	case RegisterIXL:
		return low(r.IX), nil
	case RegisterIXH:
		return high(r.IX), nil
	case RegisterIYL:
		return low(r.IY), nil
	case RegisterIYH:
		return high(r.IY), nil
	case RegisterF2:
		return low(r.AF2), nil
	case RegisterA2:
		return high(r.AF2), nil
	case RegisterC2:
		return low(r.BC2), nil
	case RegisterB2:
		return high(r.BC2), nil
	case RegisterE2:
		return low(r.DE2), nil
	case RegisterD2:
		return high(r.DE2), nil
	case RegisterL2:
		return low(r.HL2), nil
	case RegisterH2:
		return high(r.HL2), nil
	case RegisterR:
		return uint16(r.R), nil
	case RegisterI:
		return uint16(r.I), nil
	default:
		return 0, fmt.Errorf("unknown register %v", register)
	}
}
