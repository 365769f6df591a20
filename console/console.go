// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "strings"

// Terminator is the out-of-band line appended after every command. The
// remote echoes it back, which guarantees a delimiter follows each
// response even when the command produces no prompt.
const Terminator = "#"

// Interrupt is the control byte (^E) that stops a running simulation.
// It is sent without a line ending and never produces a response.
const Interrupt = "\x05"

// RejectionMarker is the text the remote console sends for a command
// it does not accept.
const RejectionMarker = "Invalid remote console command"

// Delimiters are the tokens that end a response unit, in tie-break
// order. When two tokens occur at the same offset the earlier entry in
// this list wins.
var Delimiters = []string{"sim>", "SIM>", Terminator}

// Encode frames a command for the wire: the command line followed by
// the terminator line.
func Encode(command string) []byte {
	return []byte(command + "\n" + Terminator + "\n")
}

// findDelimiter returns the offset and length of the earliest token in
// input, or -1 if there is none. Ties go to the token listed first.
func findDelimiter(input string, tokens []string) (index, length int) {
	index = -1
	for _, token := range tokens {
		i := strings.Index(input, token)
		if i < 0 {
			continue
		}
		if index < 0 || i < index {
			index, length = i, len(token)
		}
	}
	return index, length
}

// ChunkResponse splits input into complete response units and returns
// the trailing text that is not yet terminated by a delimiter.
//
// Each unit is the text before a delimiter with its lines trimmed and
// blank lines and terminator echoes removed. Text that reduces to no
// lines (a bare prompt, an echoed terminator) produces no unit.
func ChunkResponse(input string) (units []string, rest string) {
	for {
		index, length := findDelimiter(input, Delimiters)
		if index < 0 {
			return units, input
		}
		candidate := strings.TrimSpace(input[:index])
		input = input[index+length:]
		if unit := filterLines(candidate); unit != "" {
			units = append(units, unit)
		}
	}
}

func filterLines(candidate string) string {
	var kept []string
	for _, line := range strings.Split(candidate, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == Terminator {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Chunker accumulates console output across reads and emits complete
// response units. Splitting the same byte stream across any number of
// Feed calls yields the same units as a single Feed.
//
// A Chunker is not safe for concurrent use.
type Chunker struct {
	pending strings.Builder
}

// Feed appends data to the carried-over text and returns every unit
// completed by it.
func (c *Chunker) Feed(data []byte) []string {
	c.pending.Write(data)
	units, rest := ChunkResponse(c.pending.String())
	c.pending.Reset()
	c.pending.WriteString(rest)
	return units
}

// Pending returns the text received since the last delimiter.
func (c *Chunker) Pending() string {
	return c.pending.String()
}

// Reset discards the carried-over text.
func (c *Chunker) Reset() {
	c.pending.Reset()
}
