// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"

	"go.bug.st/serial"
)

var _ Dialer = (*SerialDialer)(nil)

// DefaultBaudRate is the UART speed of the ZX Next debug interface.
const DefaultBaudRate = 921600

// SerialDialer opens a serial port with 8N1 framing. The ZX Next
// DZRP remote is reached this way through a USB UART.
type SerialDialer struct {
	// BaudRate is the line speed. Zero selects DefaultBaudRate.
	BaudRate int
}

// DialContext opens the serial device at address (e.g. /dev/ttyUSB0).
// Opening a port does not block, so ctx is only checked up front.
func (d *SerialDialer) DialContext(ctx context.Context, address string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baudRate := d.BaudRate
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(address, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", address, err)
	}
	// Stale bytes from a previous session would desynchronize framing.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("resetting serial port %s: %w", address, err)
	}
	return port, nil
}

// SerialPorts lists the serial devices present on the system.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
