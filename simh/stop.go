// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simh

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Console messages that bracket a run.
const (
	runningMarker    = "Simulator Running"
	breakpointMarker = "Breakpoint"
	stoppedMarker    = "Simulation stopped"
	haltMarker       = "HALT instruction"
	stepMarker       = "Step expired"
)

var stopAddressPattern = regexp.MustCompile(`PC: ([0-9A-Fa-f]+)`)

// isStopped recognizes the message SIMH prints when execution ends.
func isStopped(text string) bool {
	return strings.Contains(text, breakpointMarker) ||
		strings.Contains(text, stoppedMarker) ||
		strings.Contains(text, haltMarker)
}

// isRunning recognizes the progress message printed after "go".
func isRunning(text string) bool {
	return strings.Contains(text, runningMarker) && !isStopped(text)
}

// isStepped recognizes the response to "step".
func isStepped(text string) bool {
	return strings.Contains(text, stepMarker) || isStopped(text)
}

// StopAddress extracts the program counter from a stop message such as
// "Breakpoint, PC: 00100 (JP 0604h)". SIMH pads the address to five
// digits; any width is accepted as long as the value fits 16 bits.
func StopAddress(text string) (uint16, bool) {
	match := stopAddressPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseUint(match[1], 16, 32)
	if err != nil || value > 0xFFFF {
		return 0, false
	}
	return uint16(value), true
}

// runCommands start execution and complete only when it stops.
var runCommands = []string{"go", "run", "cont", "continue", "boot"}

// isRunCommand reports whether command starts unbounded execution.
func isRunCommand(command string) bool {
	verb, _, _ := strings.Cut(strings.TrimSpace(command), " ")
	return slices.Contains(runCommands, strings.ToLower(verb))
}
