// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dzrp

import (
	"errors"
	"testing"
)

func TestParseNotification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
		want    Notification
	}{
		{
			name:    "nul terminated text",
			payload: []byte{1, 2, 0x34, 0x12, 'h', 'i', 0, 'x'},
			want:    Notification{Kind: NotificationPause, Reason: BreakBreakpoint, Address: 0x1234, Text: "hi"},
		},
		{
			name:    "text to end of frame",
			payload: []byte{1, 1, 0x00, 0x80, 'u', 's', 'e', 'r'},
			want:    Notification{Kind: NotificationPause, Reason: BreakManual, Address: 0x8000, Text: "user"},
		},
		{
			name:    "no text",
			payload: []byte{1, 4, 0xFF, 0xFF},
			want:    Notification{Kind: NotificationPause, Reason: BreakWatchpointWrite, Address: 0xFFFF},
		},
	}
	for _, test := range tests {
		got, err := ParseNotification(test.payload)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: got %+v, want %+v", test.name, got, test.want)
		}
	}
}

func TestParseNotificationShort(t *testing.T) {
	t.Parallel()
	if _, err := ParseNotification([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for 3-byte payload")
	}
}

func TestEncodeNotification(t *testing.T) {
	t.Parallel()
	original := Notification{Kind: NotificationPause, Reason: BreakWatchpointRead, Address: 0x5B00, Text: "WP read"}
	got, err := ParseNotification(EncodeNotification(original))
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if got != original {
		t.Errorf("got %+v, want %+v", got, original)
	}
}

func TestParseInitResponse(t *testing.T) {
	t.Parallel()

	response, err := ParseInitResponse([]byte{0, 1, 4, 2, 'Z', 'X', 'N', 0})
	if err != nil {
		t.Fatalf("ParseInitResponse: %v", err)
	}
	if response.Status != 0 || response.Version != (Version{1, 4, 2}) || response.ProgramName != "ZXN" {
		t.Errorf("unexpected response %+v", response)
	}

	response, err = ParseInitResponse([]byte{0, 1, 4, 0})
	if err != nil {
		t.Fatalf("ParseInitResponse: %v", err)
	}
	if response.ProgramName != "Unknown" {
		t.Errorf("ProgramName = %q, want Unknown", response.ProgramName)
	}

	if _, err := ParseInitResponse([]byte{0, 1}); err == nil {
		t.Error("expected error for short response")
	}
}

func TestCheckCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		response     InitResponse
		wantErr      bool
		incompatible bool
	}{
		{"exact", InitResponse{Version: Version{1, 4, 0}, ProgramName: "dezogif"}, false, false},
		{"newer patch", InitResponse{Version: Version{1, 4, 7}, ProgramName: "dezogif"}, false, false},
		{"older minor", InitResponse{Version: Version{1, 3, 9}, ProgramName: "dezogif"}, true, true},
		{"newer minor", InitResponse{Version: Version{1, 5, 0}, ProgramName: "dezogif"}, true, true},
		{"other major", InitResponse{Version: Version{2, 4, 0}, ProgramName: "dezogif"}, true, true},
		{"remote error", InitResponse{Status: 3, Version: Version{1, 4, 0}, ProgramName: "dezogif"}, true, false},
	}
	for _, test := range tests {
		err := test.response.CheckCompatible(ProtocolVersion)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", test.name, err, test.wantErr)
			continue
		}
		if errors.Is(err, ErrIncompatibleVersion) != test.incompatible {
			t.Errorf("%s: errors.Is(err, ErrIncompatibleVersion) = %v, want %v", test.name, !test.incompatible, test.incompatible)
		}
	}
}

func TestEncodeInitPayload(t *testing.T) {
	t.Parallel()
	payload := EncodeInitPayload(Version{1, 4, 0}, "simlink")
	want := append([]byte{1, 4, 0}, "simlink\x00"...)
	if string(payload) != string(want) {
		t.Errorf("EncodeInitPayload = %q, want %q", payload, want)
	}

	round, err := ParseInitResponse(EncodeInitResponse(InitResponse{Version: Version{1, 4, 1}, ProgramName: "ZEsarUX"}))
	if err != nil {
		t.Fatalf("ParseInitResponse: %v", err)
	}
	if round.ProgramName != "ZEsarUX" || round.Version != (Version{1, 4, 1}) {
		t.Errorf("round trip = %+v", round)
	}
}
