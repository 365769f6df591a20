// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides simlink's shared CBOR encoding configuration.
//
// CBOR is used for the on-disk wire trace (lib/wiretrace). The encoder
// uses Core Deterministic Encoding: sorted map keys, smallest integer
// encoding, no indefinite-length items.
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
//
// Types serialized here carry `cbor` struct tags. Byte slices encode as
// CBOR byte strings, so raw wire chunks are stored verbatim.
package codec
