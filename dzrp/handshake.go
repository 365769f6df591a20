// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dzrp

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is a DZRP protocol version: major, minor, patch.
type Version [3]byte

// ProtocolVersion is the protocol version this package speaks.
var ProtocolVersion = Version{1, 4, 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// ErrIncompatibleVersion reports a remote whose protocol major or minor
// version differs from the required one.
var ErrIncompatibleVersion = errors.New("incompatible DZRP version")

// EncodeInitPayload builds the CMD_INIT payload: the local protocol
// version followed by the nul-terminated program name.
func EncodeInitPayload(version Version, programName string) []byte {
	payload := append([]byte(nil), version[:]...)
	return AppendCString(payload, programName)
}

// InitResponse is the remote's answer to CMD_INIT.
type InitResponse struct {
	// Status is 0 on success; anything else is a remote error code.
	Status      byte
	Version     Version
	ProgramName string
}

// ParseInitResponse parses a CMD_INIT response payload:
// [status:1] [version:3] [program name, nul-terminated].
func ParseInitResponse(payload []byte) (InitResponse, error) {
	if len(payload) < 4 {
		return InitResponse{}, fmt.Errorf("init response of %d bytes, want at least 4", len(payload))
	}
	response := InitResponse{
		Status:      payload[0],
		Version:     Version{payload[1], payload[2], payload[3]},
		ProgramName: cString(payload[4:]),
	}
	if response.ProgramName == "" {
		response.ProgramName = "Unknown"
	}
	return response, nil
}

// EncodeInitResponse builds a CMD_INIT response payload.
func EncodeInitResponse(response InitResponse) []byte {
	payload := []byte{response.Status, response.Version[0], response.Version[1], response.Version[2]}
	return AppendCString(payload, response.ProgramName)
}

// CheckCompatible returns nil when the remote reported success and its
// major and minor version match required. The patch level is not
// compared.
func (r InitResponse) CheckCompatible(required Version) error {
	if r.Status != 0 {
		return fmt.Errorf("remote %q returned error code %d", r.ProgramName, r.Status)
	}
	constraint, err := semver.NewConstraint(fmt.Sprintf("~%d.%d.0", required[0], required[1]))
	if err != nil {
		return fmt.Errorf("building version constraint: %w", err)
	}
	remote, err := semver.NewVersion(r.Version.String())
	if err != nil {
		return fmt.Errorf("parsing remote version %s: %w", r.Version, err)
	}
	if !constraint.Check(remote) {
		return fmt.Errorf("%w: required %d.%d, %q supports %d.%d",
			ErrIncompatibleVersion, required[0], required[1], r.ProgramName, r.Version[0], r.Version[1])
	}
	return nil
}
