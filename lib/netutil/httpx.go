// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body reads and network error
// classification shared by the PutLogs transport and the mock ingestion
// endpoint.
//
// Every body read is bounded. PutLogs responses are tiny JSON documents
// and request bodies are capped by the ingestion service, so nothing here
// streams.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds response body reads: 1 MiB. PutLogs answers
// with an empty body on success and a short JSON error otherwise.
const MaxResponseSize int64 = 1 << 20

// ErrTooLarge is returned by ReadLimited when the body exceeds the limit.
var ErrTooLarge = errors.New("body exceeds size limit")

// ReadResponse reads a response body up to MaxResponseSize bytes. Use
// instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ReadLimited reads all of body, failing with ErrTooLarge instead of
// truncating when it holds more than limit bytes.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// Drain discards the rest of a response body, up to MaxResponseSize, so
// the underlying connection can be reused.
func Drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
}
