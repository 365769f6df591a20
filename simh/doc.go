// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package simh drives a SIMH simulator through its remote console.
//
// A [Client] wraps a [correlate.TextEngine] and turns debugger
// operations into console commands: "examine state" for registers,
// "go" and the ^E interrupt for execution control, "break" and
// "nobreak" for breakpoints, "examine" and "deposit" for memory. The
// client caches the register dump between stops; any command that can
// move the program counter invalidates it.
//
// Register values are decoded from the dump with a [RegisterDecoder],
// which remembers the line each register was found on so repeated
// lookups do not rescan the text.
package simh
