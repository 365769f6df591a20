// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for simlink.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/simlink/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [Info] and [Full] format them for --version output. [Handshake] is
// the identification string the zxnext client sends in its CMD_INIT
// request.
package version
