// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by operations on an engine that was closed
// locally.
var ErrClosed = errors.New("correlation engine closed")

// ErrConnectionLost reports that the link failed or the remote hung up.
var ErrConnectionLost = errors.New("connection to simulator lost")

// TimeoutError reports that a dispatched command received no response
// within its deadline. The link state is unknown afterwards, so the
// whole connection is failed.
type TimeoutError struct {
	// Label names the command that timed out.
	Label   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("simulator did not answer %q within %v", e.Label, e.Timeout)
}

// DesyncError reports that the binary stream can no longer be
// correlated: a response carried an unexpected sequence number, or a
// frame header was unparseable (Err is set).
type DesyncError struct {
	// InFlight reports whether a command was awaiting a response. Want
	// is meaningful only when it is set.
	InFlight bool
	Want     uint8
	Got      uint8
	Err      error
}

func (e *DesyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol desynchronized: %v", e.Err)
	}
	if !e.InFlight {
		return fmt.Sprintf("protocol desynchronized: response with sequence %d while no command is in flight", e.Got)
	}
	return fmt.Sprintf("protocol desynchronized: response with sequence %d, expected %d", e.Got, e.Want)
}

func (e *DesyncError) Unwrap() error { return e.Err }

// RejectedError is returned by TextEngine.Call when the remote reports
// the command as invalid.
type RejectedError struct {
	Command  string
	Response string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("simulator rejected %q: %s", e.Command, e.Response)
}
