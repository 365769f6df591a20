// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ziutek/telnet"
)

var _ Dialer = (*TelnetDialer)(nil)

// TelnetDialer opens a telnet session, the protocol SIMH's remote
// console listens with. Option negotiation (IAC sequences) is consumed
// by the telnet layer so the console codec only sees text, and "\n" is
// written as "\r\n".
type TelnetDialer struct {
	// Timeout is the maximum time to wait for the TCP connection.
	Timeout time.Duration
}

// DialContext connects to address (host:port) and wraps the connection
// in a telnet session.
func (d *TelnetDialer) DialContext(ctx context.Context, address string) (Link, error) {
	conn, err := (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	session, err := telnet.NewConn(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("starting telnet session with %s: %w", address, err)
	}
	session.SetUnixWriteMode(true)
	return session, nil
}
