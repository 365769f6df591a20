// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds the channel helpers shared by the engine,
// client, and transport tests.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-deadline
// pattern so a test that never gets its value fails with a message
// instead of hanging until the test binary times out. [RequireNoReceive]
// is the negative form: nothing may arrive within a short grace period.
//
// Deadlines here are real wall-clock time. Anything the code under test
// schedules goes through lib/clock and a fake clock instead.
package testutil
