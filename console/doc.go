// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console implements the framing of the SIMH remote console, a
// line-oriented text protocol with no explicit response boundaries.
//
// Outbound, every command is followed by a terminator line ("#\n"),
// which the console echoes so that a boundary is always observable.
// Inbound, the byte stream is cut at the earliest prompt ("sim>",
// "SIM>") or terminator. The text before each cut is cleaned of blank
// lines and terminator echoes and becomes one response unit:
//
//	var chunker console.Chunker
//	units := chunker.Feed([]byte("AF: 7008\nBC: 0200\nsim>"))
//	// units == []string{"AF: 7008\nBC: 0200"}
//
// When two delimiters start at the same offset, the one listed first in
// [Delimiters] wins. Boundary detection depends on this order.
package console
