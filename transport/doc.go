// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport opens byte-stream links to simulators.
//
// A [Link] is an io.ReadWriteCloser with no framing of its own; the
// console and dzrp codecs impose structure on top. The correlation
// engine owns its Link exclusively and never reconnects: a Link that
// fails stays failed.
//
// [Dialer] implementations:
//
//   - [TCPDialer]: a raw socket.
//   - [TelnetDialer]: a telnet session (github.com/ziutek/telnet) for
//     the SIMH remote console, which negotiates telnet options on
//     connect.
//   - [SerialDialer]: a UART (go.bug.st/serial) for the ZX Next.
//
// [NewDialer] selects one by the transport name used in configuration.
// [Pipe] returns an in-memory pair for tests.
package transport
