// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dzrp implements the wire format of DZRP, the binary debugger
// protocol spoken by the ZX Next remote.
//
// Every frame starts with a 4-byte little-endian length counting the
// bytes that follow it. Requests carry a sequence number (1-255, never
// 0) and an opcode:
//
//	[length:4 LE] [sequence:1] [opcode:1] [payload]
//
// Responses echo the sequence number of the request they answer:
//
//	[length:4 LE] [sequence:1] [payload]
//
// A response with sequence 0 is an unsolicited notification, parsed by
// [ParseNotification]. The only notification kind is
// [NotificationPause], sent when execution stops.
//
// [FrameDecoder] reassembles frames from a stream. A zero or oversized
// length field means the stream has lost frame alignment; DZRP has no
// resynchronization marker, so the decoder reports [ErrMalformedFrame]
// and the connection must be dropped.
//
// The CMD_INIT handshake exchanges protocol versions.
// [InitResponse.CheckCompatible] accepts any remote whose major and
// minor version match.
package dzrp
