// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package zxnext drives a ZX Next over DZRP.
//
// A [Client] wraps a [correlate.FrameEngine] with typed requests for
// every DZRP command: the CMD_INIT handshake, register and memory
// access, breakpoints, watchpoints, and the sprite and TBBlue register
// queries. Execution control is asynchronous on the wire: CMD_CONTINUE
// is acknowledged immediately and the remote sends a pause notification
// when it stops. [Client.Continue] waits for both.
package zxnext
