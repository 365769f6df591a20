// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"bytes"
	"slices"
	"time"
)

// NoTimeout disables the deadline of a request. Use it for commands
// whose completion is unbounded, such as running until a breakpoint.
const NoTimeout time.Duration = -1

// MatchFunc decides whether a console response unit belongs to a
// command.
type MatchFunc func(text string) bool

// Callback receives the response unit that completed a command.
type Callback func(Unit)

// command is one queue entry. Identical undispatched console commands
// share an entry and accumulate callbacks.
type command struct {
	label   string
	payload []byte

	// callbacks is never empty; a nil caller callback is stored as a
	// no-op so that coalescing always appends.
	callbacks []Callback
	rejected  []func(text string)

	dispatched bool
	noResponse bool

	// timeout is armed on dispatch. Zero never expires.
	timeout time.Duration

	match    MatchFunc
	progress MatchFunc

	// sequence is the binary request sequence number; unused for text.
	sequence uint8
}

// queue is the ordered set of pending commands. It is not safe for
// concurrent use; the engine guards it.
type queue struct {
	entries []*command
}

// enqueue appends c, or merges its callbacks into the last entry when
// coalesce is set and that entry is an identical undispatched command.
// Reports whether c was merged.
func (q *queue) enqueue(c *command, coalesce bool) bool {
	if coalesce && !c.noResponse && len(q.entries) > 0 {
		last := q.entries[len(q.entries)-1]
		if !last.dispatched && !last.noResponse && bytes.Equal(last.payload, c.payload) {
			last.callbacks = append(last.callbacks, c.callbacks...)
			last.rejected = append(last.rejected, c.rejected...)
			return true
		}
	}
	q.entries = append(q.entries, c)
	return false
}

// next returns the command to write now, or nil. The first undispatched
// entry is eligible: a noResponse entry always (it is removed, as it
// never awaits a match), any other entry only when nothing is in
// flight, in which case it is marked dispatched.
func (q *queue) next() *command {
	for i, c := range q.entries {
		if c.dispatched {
			continue
		}
		if c.noResponse {
			q.entries = slices.Delete(q.entries, i, i+1)
			return c
		}
		if q.inFlight() != nil {
			return nil
		}
		c.dispatched = true
		return c
	}
	return nil
}

// inFlight returns the dispatched, unmatched command, if any.
func (q *queue) inFlight() *command {
	for _, c := range q.entries {
		if c.dispatched {
			return c
		}
	}
	return nil
}

// match returns the first dispatched command whose predicate accepts
// text.
func (q *queue) match(text string) *command {
	for _, c := range q.entries {
		if c.dispatched && c.match(text) {
			return c
		}
	}
	return nil
}

func (q *queue) remove(target *command) {
	q.entries = slices.DeleteFunc(q.entries, func(c *command) bool { return c == target })
}

// clear drops every entry without invoking callbacks and returns how
// many were dropped.
func (q *queue) clear() int {
	dropped := len(q.entries)
	q.entries = nil
	return dropped
}

func (q *queue) len() int {
	return len(q.entries)
}

func (q *queue) dispatchedCount() int {
	count := 0
	for _, c := range q.entries {
		if c.dispatched {
			count++
		}
	}
	return count
}
