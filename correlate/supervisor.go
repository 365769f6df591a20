// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"time"

	"github.com/bureau-foundation/simlink/lib/clock"
)

// supervisor holds the deadline of the command in flight. At most one
// command is in flight, so one timer suffices. Guarded by the engine
// mutex.
type supervisor struct {
	clock clock.Clock
	timer *clock.Timer

	// generation increments on every arm and cancel. A firing timer
	// whose generation is stale lost a race with a response and is
	// ignored.
	generation uint64

	expire func(generation uint64, label string, timeout time.Duration)
}

// arm starts the deadline for a dispatched command. A timeout of zero
// or less only cancels the previous deadline.
func (s *supervisor) arm(label string, timeout time.Duration) {
	s.cancel()
	if timeout <= 0 {
		return
	}
	generation := s.generation
	s.timer = s.clock.AfterFunc(timeout, func() {
		s.expire(generation, label, timeout)
	})
}

// cancel stops the current deadline, if any.
func (s *supervisor) cancel() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
