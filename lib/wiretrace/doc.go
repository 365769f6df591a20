// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wiretrace records the bytes exchanged with a simulator so a
// session can be inspected or replayed offline.
//
// A [Recorder] implements correlate.Tap. Every chunk read from or
// written to the link becomes a [Record] holding the direction, the
// time, and the bytes exactly as they crossed the link, so replaying
// the inbound records through a decoder reproduces the original
// fragmentation. Records are CBOR-encoded (lib/codec), compressed
// with LZ4 or zstd when that makes them smaller, and framed:
//
//	[compression:1] [raw length:4 BE] [stored length:4 BE] [body]
//
// [ReadAll] decodes a trace file and [InboundStream] reassembles the bytes
// received from the remote.
package wiretrace
