// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// Timeout bounds every wait for something that should happen.
const Timeout = 5 * time.Second

// RequireReceive returns the next value from ch, failing the test if
// none arrives within Timeout or ch is closed.
//
//	err := testutil.RequireReceive(t, result, "Run returning")
func RequireReceive[T any](t testing.TB, ch <-chan T, what string) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while %s", what)
		}
		return value
	case <-time.After(Timeout):
		t.Fatalf("timed out after %v %s", Timeout, what)
	}
	panic("unreachable")
}

// RequireClosed waits for ch to close, failing the test after Timeout.
func RequireClosed(t testing.TB, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(Timeout):
		t.Fatalf("timed out after %v %s", Timeout, what)
	}
}

// RequireNoReceive fails the test if ch yields a value within grace.
func RequireNoReceive[T any](t testing.TB, ch <-chan T, grace time.Duration, what string) {
	t.Helper()
	select {
	case value := <-ch:
		t.Fatalf("%s: received %v", what, value)
	case <-time.After(grace):
	}
}
