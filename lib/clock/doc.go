// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source behind every
// command deadline in simlink.
//
// The correlation engine never calls time.AfterFunc directly. It holds
// a Clock, which is Real() in production and Fake() in tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine := correlate.NewText(link, correlate.TextOptions{Clock: c})
//	engine.Send(request, callback)
//	c.WaitForTimers(1)                 // the dispatch armed its deadline
//	c.Advance(50 * time.Millisecond)   // the deadline fires synchronously
//
// WaitForTimers closes the race between a goroutine arming a deadline
// and the test advancing the clock.
package clock
