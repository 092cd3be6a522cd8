// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR configuration for captured PutLogs
// requests, plus the Capture record the mock endpoint writes.
//
// The mock ingestion endpoint records every accepted request as one
// Capture. It prints captures as JSON lines for people and as a CBOR
// sequence for tools; both formats come from the same json struct
// tags, since fxamacker/cbor falls back to json tags when cbor tags
// are absent.
//
// Encoding is Core Deterministic (RFC 8949 §4.2): the same capture
// always produces the same bytes, so recorded sequences diff cleanly.
// Times are tagged RFC 3339 strings with nanoseconds.
//
//	encoder := codec.NewEncoder(os.Stdout)
//	err := encoder.Encode(capture)
//
//	decoder := codec.NewDecoder(file)
//	var capture codec.Capture
//	err = decoder.Decode(&capture)
package codec
