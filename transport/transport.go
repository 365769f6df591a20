// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Link is a bidirectional byte stream to a simulator. Reads return
// whatever bytes have arrived; no framing is implied. Close must unblock
// a pending Read.
type Link interface {
	io.ReadWriteCloser
}

// Dialer opens a Link to a simulator. The address format is specific
// to the implementation: host:port for TCP and telnet, a device path
// for serial.
type Dialer interface {
	DialContext(ctx context.Context, address string) (Link, error)
}

// Options configures [NewDialer].
type Options struct {
	// Timeout bounds connection establishment for network dialers.
	// Zero means only the context deadline applies.
	Timeout time.Duration

	// BaudRate is the serial line speed. Ignored by network dialers.
	BaudRate int
}

// NewDialer returns the Dialer for a transport name: "tcp", "telnet",
// or "serial".
func NewDialer(kind string, options Options) (Dialer, error) {
	switch kind {
	case "tcp":
		return &TCPDialer{Timeout: options.Timeout}, nil
	case "telnet":
		return &TelnetDialer{Timeout: options.Timeout}, nil
	case "serial":
		return &SerialDialer{BaudRate: options.BaudRate}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}
