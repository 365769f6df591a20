// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dzrp

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// NotificationPause is the notification kind sent when the remote stops
// executing.
const NotificationPause byte = 1

// Notification is an unsolicited event from the remote.
type Notification struct {
	Kind    byte
	Reason  BreakReason
	Address uint16
	// Text is the optional human-readable reason; empty if absent.
	Text string
}

// ParseNotification parses the payload of a sequence-0 frame:
// [kind:1] [reason:1] [address:2 LE] [text, nul-terminated or to end].
func ParseNotification(payload []byte) (Notification, error) {
	if len(payload) < 4 {
		return Notification{}, fmt.Errorf("notification payload of %d bytes, want at least 4", len(payload))
	}
	return Notification{
		Kind:    payload[0],
		Reason:  BreakReason(payload[1]),
		Address: binary.LittleEndian.Uint16(payload[2:4]),
		Text:    cString(payload[4:]),
	}, nil
}

// EncodeNotification builds a notification payload. The text is
// nul-terminated when present.
func EncodeNotification(notification Notification) []byte {
	payload := make([]byte, 4, 5+len(notification.Text))
	payload[0] = notification.Kind
	payload[1] = byte(notification.Reason)
	binary.LittleEndian.PutUint16(payload[2:4], notification.Address)
	if notification.Text != "" {
		payload = append(payload, notification.Text...)
		payload = append(payload, 0)
	}
	return payload
}

// cString returns the bytes up to the first nul, or all of them.
func cString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// AppendCString appends s and a terminating nul to buffer.
func AppendCString(buffer []byte, s string) []byte {
	buffer = append(buffer, s...)
	return append(buffer, 0)
}
