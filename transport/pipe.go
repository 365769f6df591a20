// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import "net"

// Pipe returns both ends of a synchronous in-memory Link. Tests use
// one end as the engine's link and drive the other as a fake simulator.
func Pipe() (Link, Link) {
	client, server := net.Pipe()
	return client, server
}
