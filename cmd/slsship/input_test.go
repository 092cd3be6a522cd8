// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/testutil"
)

var stamp = time.Date(2026, 3, 14, 7, 9, 26, 0, time.UTC)

type fakeSink struct {
	mu      sync.Mutex
	entries []loggroup.Entry
}

func (f *fakeSink) NewEntry(t time.Time) loggroup.Entry { return loggroup.NewEntry(t, 4) }

func (f *fakeSink) Append(entry loggroup.Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return true
}

func (f *fakeSink) contents() [][]loggroup.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all [][]loggroup.Content
	for i := range f.entries {
		all = append(all, f.entries[i].Contents().Pairs())
	}
	return all
}

func newReader(sink *fakeSink, json bool) *lineReader {
	return &lineReader{
		client:  sink,
		json:    json,
		level:   "INFO",
		maxLine: 1 << 20,
		now:     func() time.Time { return stamp },
	}
}

func TestShipPlainLines(t *testing.T) {
	sink := &fakeSink{}
	lines, err := newReader(sink, false).ship(context.Background(), strings.NewReader("first\r\n\n  \nsecond\n"))
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if lines != 4 {
		t.Errorf("lines = %d, want 4", lines)
	}
	want := [][]loggroup.Content{
		{{Key: "level", Value: "INFO"}, {Key: "message", Value: "first"}},
		{{Key: "level", Value: "INFO"}, {Key: "message", Value: "second"}},
	}
	if diff := cmp.Diff(want, sink.contents()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if got := sink.entries[0].UnixNano(); got != stamp.UnixNano() {
		t.Errorf("entry time = %d, want %d", got, stamp.UnixNano())
	}
}

func TestShipJSONLines(t *testing.T) {
	input := strings.Join([]string{
		`{"level":"WARN","message":"slow query","took_ms":1532,"tables":["a","b"],"ok":false,"extra":null}`,
		`not json at all`,
		`["an","array"]`,
		`{"a":1} trailing`,
	}, "\n")

	sink := &fakeSink{}
	if _, err := newReader(sink, true).ship(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("ship: %v", err)
	}

	want := [][]loggroup.Content{
		{
			{Key: "level", Value: "WARN"},
			{Key: "message", Value: "slow query"},
			{Key: "took_ms", Value: "1532"},
			{Key: "tables", Value: `["a","b"]`},
			{Key: "ok", Value: "false"},
			{Key: "extra", Value: "null"},
		},
		{{Key: "level", Value: "INFO"}, {Key: "message", Value: "not json at all"}},
		{{Key: "level", Value: "INFO"}, {Key: "message", Value: `["an","array"]`}},
		{{Key: "level", Value: "INFO"}, {Key: "message", Value: `{"a":1} trailing`}},
	}
	if diff := cmp.Diff(want, sink.contents()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestShipLineTooLong(t *testing.T) {
	sink := &fakeSink{}
	reader := newReader(sink, false)
	reader.maxLine = 0
	_, err := reader.ship(context.Background(), strings.NewReader(strings.Repeat("x", 70*1024)+"\n"))
	if err == nil || !strings.Contains(err.Error(), "reading input after 0 lines") {
		t.Fatalf("ship error = %v, want a read error for the oversized line", err)
	}
}

func TestShipStopsOnCancel(t *testing.T) {
	pipeReader, pipeWriter := io.Pipe()
	defer pipeWriter.Close()

	sink := &fakeSink{}
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := newReader(sink, false).ship(ctx, pipeReader)
		result <- err
	}()

	if _, err := io.WriteString(pipeWriter, "before cancel\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	cancel()

	err := testutil.RequireReceive(t, result, 5*time.Second, "ship to return after cancel")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ship error = %v, want context.Canceled", err)
	}
}
