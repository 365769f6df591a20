// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfoDirty(t *testing.T) {
	original := GitDirty
	defer func() { GitDirty = original }()

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, should not be marked dirty", Info())
	}
	GitDirty = "true"
	if !strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, want -dirty marker", Info())
	}
}

func TestHandshake(t *testing.T) {
	got := Handshake()
	if !strings.HasPrefix(got, ProgramName+" ") {
		t.Errorf("Handshake() = %q, want prefix %q", got, ProgramName+" ")
	}
	if !strings.HasSuffix(got, Version) {
		t.Errorf("Handshake() = %q, want suffix %q", got, Version)
	}
}

func TestFullMentionsGo(t *testing.T) {
	if !strings.Contains(Full(), "Go: go") {
		t.Errorf("Full() = %q, want Go version line", Full())
	}
}
