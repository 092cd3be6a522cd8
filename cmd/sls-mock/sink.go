// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bureau-foundation/slsship/lib/codec"
)

// Output formats for captures.
const (
	formatJSON = "json"
	formatCBOR = "cbor"
)

// streamSink serializes captures onto one writer. Requests are served
// concurrently, so writes are serialized here.
type streamSink struct {
	mu     sync.Mutex
	encode func(capture *codec.Capture) error
}

func (s *streamSink) Write(capture *codec.Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encode(capture)
}

// newSink returns the sink for format. Indented JSON is for terminals.
func newSink(w io.Writer, format string, indent bool) (*streamSink, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		encoder := json.NewEncoder(w)
		if indent {
			encoder.SetIndent("", "  ")
		}
		return &streamSink{encode: func(capture *codec.Capture) error { return encoder.Encode(capture) }}, nil
	case formatCBOR:
		encoder := codec.NewEncoder(w)
		return &streamSink{encode: func(capture *codec.Capture) error { return encoder.Encode(capture) }}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", format, formatJSON, formatCBOR)
	}
}

// diagnose prints each item of a CBOR sequence in diagnostic notation,
// one per line.
func diagnose(w io.Writer, data []byte) error {
	for item := 1; len(data) > 0; item++ {
		notation, rest, err := codec.DiagnoseFirst(data)
		if err != nil {
			return fmt.Errorf("item %d: %w", item, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		data = rest
	}
	return nil
}
