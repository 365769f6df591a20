// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simh

import (
	"fmt"
	"strconv"
	"strings"
)

// minAddressDigits is the shortest address field SIMH prints. It
// zero-pads addresses to four or five digits, which keeps register
// names such as "AF:" from reading as addresses.
const minAddressDigits = 4

// lineAddress splits a memory or disassembly line such as
// "00100:\tLD A,01H" into its address and the text after the colon.
func lineAddress(line string) (address uint16, rest string, ok bool) {
	field, rest, found := strings.Cut(strings.TrimSpace(line), ":")
	field = strings.TrimSpace(field)
	if !found || len(field) < minAddressDigits {
		return 0, "", false
	}
	value, err := strconv.ParseUint(field, 16, 32)
	if err != nil || value > 0xFFFF {
		return 0, "", false
	}
	return uint16(value), rest, true
}

// hasAddressLine reports whether some line of text starts with the
// given address, in any width or case.
func hasAddressLine(text string, address uint16) bool {
	_, ok := disassembly(text, address)
	return ok
}

// parseMemory decodes "examine" output into size bytes starting at
// start. A line may carry several consecutive byte values after its
// address. Lines that are not memory lines, such as the command echo,
// are skipped.
func parseMemory(text string, start uint16, size int) ([]byte, error) {
	data := make([]byte, size)
	seen := make([]bool, size)
	for line := range strings.Lines(text) {
		address, values, ok := lineAddress(line)
		if !ok {
			continue
		}
		for i, field := range strings.Fields(values) {
			value, err := strconv.ParseUint(field, 16, 8)
			if err != nil {
				break
			}
			offset := int(address) + i - int(start)
			if offset < 0 || offset >= size {
				continue
			}
			data[offset] = byte(value)
			seen[offset] = true
		}
	}
	for offset, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("simulator output has no value for address %04X", int(start)+offset)
		}
	}
	return data, nil
}

// disassembly returns the instruction text of the line for address:
// "00100:\tLD A,01H" yields "LD A,01H".
func disassembly(text string, address uint16) (string, bool) {
	for line := range strings.Lines(text) {
		if lineAt, rest, ok := lineAddress(line); ok && lineAt == address {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
