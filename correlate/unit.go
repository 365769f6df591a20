// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import "github.com/bureau-foundation/simlink/dzrp"

// UnitKind distinguishes command responses from unsolicited events.
type UnitKind int

const (
	// UnitResponse answers a queued command.
	UnitResponse UnitKind = iota

	// UnitNotification is an event the remote sent on its own.
	UnitNotification
)

// Unit is one reconstructed response: a delimiter-bounded block of
// console text, or a decoded binary frame.
type Unit struct {
	Kind UnitKind

	// Text is the cleaned response text (console protocol).
	Text string

	// Sequence and Payload are set for binary frames. Payload excludes
	// the sequence byte.
	Sequence uint8
	Payload  []byte
}

// Sink receives connection-level events.
type Sink interface {
	// OnStop is called when the remote reports that execution stopped.
	OnStop(reason dzrp.BreakReason, address uint16, reasonText string)

	// OnProtocolError is called once when the connection fails: link
	// loss, a command timeout, or stream desynchronization. It is not
	// called after a local Close.
	OnProtocolError(err error)
}

// ConsoleSink receives console output that answers no queued command.
type ConsoleSink interface {
	OnConsoleOutput(text string)
}

// Tap observes raw bytes crossing the link. Outbound is called from the
// writer goroutine and Inbound from the reader goroutine, so
// implementations must be safe for concurrent use.
type Tap interface {
	Outbound(data []byte)
	Inbound(data []byte)
}
