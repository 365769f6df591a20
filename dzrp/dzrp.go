// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dzrp

import "fmt"

// Opcode identifies a DZRP request.
type Opcode byte

// Request opcodes understood by the ZX Next remote.
const (
	OpInit                           Opcode = 1
	OpClose                          Opcode = 2
	OpGetRegisters                   Opcode = 3
	OpSetRegister                    Opcode = 4
	OpWriteBank                      Opcode = 5
	OpContinue                       Opcode = 6
	OpPause                          Opcode = 7
	OpReadMem                        Opcode = 8
	OpWriteMem                       Opcode = 9
	OpGetSlots                       Opcode = 10
	OpReadState                      Opcode = 11
	OpWriteState                     Opcode = 12
	OpGetTbblueReg                   Opcode = 13
	OpGetSpritesPalette              Opcode = 14
	OpGetSpritesClipWindowAndControl Opcode = 15
	OpGetSprites                     Opcode = 16
	OpGetSpritePatterns              Opcode = 17
	OpSetBorder                      Opcode = 18
	OpAddBreakpoint                  Opcode = 40
	OpRemoveBreakpoint               Opcode = 41
	OpAddWatchpoint                  Opcode = 42
	OpRemoveWatchpoint               Opcode = 43
)

var opcodeNames = map[Opcode]string{
	OpInit:                           "CMD_INIT",
	OpClose:                          "CMD_CLOSE",
	OpGetRegisters:                   "CMD_GET_REGISTERS",
	OpSetRegister:                    "CMD_SET_REGISTER",
	OpWriteBank:                      "CMD_WRITE_BANK",
	OpContinue:                       "CMD_CONTINUE",
	OpPause:                          "CMD_PAUSE",
	OpReadMem:                        "CMD_READ_MEM",
	OpWriteMem:                       "CMD_WRITE_MEM",
	OpGetSlots:                       "CMD_GET_SLOTS",
	OpReadState:                      "CMD_READ_STATE",
	OpWriteState:                     "CMD_WRITE_STATE",
	OpGetTbblueReg:                   "CMD_GET_TBBLUE_REG",
	OpGetSpritesPalette:              "CMD_GET_SPRITES_PALETTE",
	OpGetSpritesClipWindowAndControl: "CMD_GET_SPRITES_CLIP_WINDOW_AND_CONTROL",
	OpGetSprites:                     "CMD_GET_SPRITES",
	OpGetSpritePatterns:              "CMD_GET_SPRITE_PATTERNS",
	OpSetBorder:                      "CMD_SET_BORDER",
	OpAddBreakpoint:                  "CMD_ADD_BREAKPOINT",
	OpRemoveBreakpoint:               "CMD_REMOVE_BREAKPOINT",
	OpAddWatchpoint:                  "CMD_ADD_WATCHPOINT",
	OpRemoveWatchpoint:               "CMD_REMOVE_WATCHPOINT",
}

// Opcodes returns every defined opcode in ascending order.
func Opcodes() []Opcode {
	return []Opcode{
		OpInit, OpClose, OpGetRegisters, OpSetRegister, OpWriteBank,
		OpContinue, OpPause, OpReadMem, OpWriteMem, OpGetSlots,
		OpReadState, OpWriteState, OpGetTbblueReg, OpGetSpritesPalette,
		OpGetSpritesClipWindowAndControl, OpGetSprites, OpGetSpritePatterns,
		OpSetBorder, OpAddBreakpoint, OpRemoveBreakpoint, OpAddWatchpoint,
		OpRemoveWatchpoint,
	}
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("CMD_UNKNOWN(%d)", byte(o))
}

// BreakReason is why the remote stopped, as reported in a pause
// notification.
type BreakReason byte

const (
	BreakNone            BreakReason = 0
	BreakManual          BreakReason = 1
	BreakBreakpoint      BreakReason = 2
	BreakWatchpointRead  BreakReason = 3
	BreakWatchpointWrite BreakReason = 4
	BreakOther           BreakReason = 255
)

func (r BreakReason) String() string {
	switch r {
	case BreakNone:
		return "none"
	case BreakManual:
		return "manual"
	case BreakBreakpoint:
		return "breakpoint"
	case BreakWatchpointRead:
		return "watchpoint read"
	case BreakWatchpointWrite:
		return "watchpoint write"
	case BreakOther:
		return "other"
	default:
		return fmt.Sprintf("reason %d", byte(r))
	}
}
