// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loggroup

import (
	"time"

	"github.com/bureau-foundation/slsship/lib/inline"
)

// Content is a per-entry key/value pair.
type Content = inline.Pair

// Entry is one log record: a nanosecond Unix timestamp and an ordered
// list of content pairs. Build an Entry with NewEntry and Add, then hand
// it to the client. Once handed over, the producer must not Add to it
// again.
type Entry struct {
	time     int64
	contents inline.Store
}

// NewEntry returns an empty entry stamped with t that keeps up to
// capacity contents inline. Zero capacity selects
// inline.DefaultCapacity.
func NewEntry(t time.Time, capacity int) Entry {
	return Entry{time: t.UnixNano(), contents: inline.New(capacity)}
}

// NewEntryAt is NewEntry with a raw nanosecond timestamp.
func NewEntryAt(unixNano int64, capacity int) Entry {
	return Entry{time: unixNano, contents: inline.New(capacity)}
}

// Add appends a content pair.
func (e *Entry) Add(key, value string) {
	e.contents.Append(key, value)
}

// UnixNano returns the timestamp in nanoseconds since the Unix epoch.
func (e *Entry) UnixNano() int64 {
	return e.time
}

// Time returns the timestamp as a time.Time.
func (e *Entry) Time() time.Time {
	return time.Unix(0, e.time)
}

// Contents returns the entry's content pairs.
func (e *Entry) Contents() *inline.Store {
	return &e.contents
}

// Len returns the number of content pairs.
func (e *Entry) Len() int {
	return e.contents.Len()
}

// Equal reports whether two entries have the same timestamp and the
// same contents in the same order.
func (e *Entry) Equal(other *Entry) bool {
	return e.time == other.time && e.contents.Equal(&other.contents)
}
