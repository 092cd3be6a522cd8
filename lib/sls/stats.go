// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sls

import (
	"fmt"
	"sync/atomic"
)

// Stats is a snapshot of a client's (or the process's) counters. Every
// counter only grows.
type Stats struct {
	// EntriesAccepted counts Append calls that took the entry.
	EntriesAccepted uint64

	// EntriesDropped counts entries refused by backpressure, including
	// oversized ones.
	EntriesDropped uint64

	// EntriesRejected counts Append calls after shutdown began.
	EntriesRejected uint64

	// GroupsSent and EntriesSent count delivered groups and the
	// entries in them.
	GroupsSent  uint64
	EntriesSent uint64

	// GroupsDropped and EntriesLost count groups abandoned after a
	// fatal error, exhausted retries, or shutdown, and their entries.
	GroupsDropped uint64
	EntriesLost   uint64

	// Retries counts attempts beyond the first.
	Retries uint64

	// BytesSent and RawBytesSent are the compressed and encoded sizes
	// of delivered groups.
	BytesSent    uint64
	RawBytesSent uint64
}

type counters struct {
	entriesAccepted atomic.Uint64
	entriesDropped  atomic.Uint64
	entriesRejected atomic.Uint64
	groupsSent      atomic.Uint64
	entriesSent     atomic.Uint64
	groupsDropped   atomic.Uint64
	entriesLost     atomic.Uint64
	retries         atomic.Uint64
	bytesSent       atomic.Uint64
	rawBytesSent    atomic.Uint64
}

// process aggregates the counters of every client in the process.
var process counters

// TotalStats returns the counters summed over every client the process
// has created.
func TotalStats() Stats {
	return process.snapshot()
}

func (c *counters) snapshot() Stats {
	return Stats{
		EntriesAccepted: c.entriesAccepted.Load(),
		EntriesDropped:  c.entriesDropped.Load(),
		EntriesRejected: c.entriesRejected.Load(),
		GroupsSent:      c.groupsSent.Load(),
		EntriesSent:     c.entriesSent.Load(),
		GroupsDropped:   c.groupsDropped.Load(),
		EntriesLost:     c.entriesLost.Load(),
		Retries:         c.retries.Load(),
		BytesSent:       c.bytesSent.Load(),
		RawBytesSent:    c.rawBytesSent.Load(),
	}
}

// add applies one update to both the client's counters and the process
// totals.
func (c *counters) add(field func(*counters) *atomic.Uint64, delta uint64) {
	field(c).Add(delta)
	field(&process).Add(delta)
}

func entriesAccepted(c *counters) *atomic.Uint64 { return &c.entriesAccepted }
func entriesDropped(c *counters) *atomic.Uint64  { return &c.entriesDropped }
func entriesRejected(c *counters) *atomic.Uint64 { return &c.entriesRejected }
func groupsSent(c *counters) *atomic.Uint64      { return &c.groupsSent }
func entriesSent(c *counters) *atomic.Uint64     { return &c.entriesSent }
func groupsDropped(c *counters) *atomic.Uint64   { return &c.groupsDropped }
func entriesLost(c *counters) *atomic.Uint64     { return &c.entriesLost }
func retries(c *counters) *atomic.Uint64         { return &c.retries }
func bytesSent(c *counters) *atomic.Uint64       { return &c.bytesSent }
func rawBytesSent(c *counters) *atomic.Uint64    { return &c.rawBytesSent }

// DropReason says why entries or a group were abandoned.
type DropReason uint8

const (
	// DropBackpressure: entries refused because the open group was
	// full. Reported in aggregate once per drain cycle.
	DropBackpressure DropReason = iota + 1

	// DropEncoding: the encoder produced output that disagrees with its
	// own size accounting. Indicates a bug.
	DropEncoding

	// DropCompression: the codec failed. The group is never sent
	// uncompressed instead.
	DropCompression

	// DropFatal: the endpoint rejected the request in a way retrying
	// cannot fix (authentication, validation).
	DropFatal

	// DropRetriesExhausted: every attempt failed with a retryable error.
	DropRetriesExhausted

	// DropShutdown: the shutdown grace period ended mid-delivery.
	DropShutdown
)

func (r DropReason) String() string {
	switch r {
	case DropBackpressure:
		return "backpressure"
	case DropEncoding:
		return "encoding"
	case DropCompression:
		return "compression"
	case DropFatal:
		return "fatal"
	case DropRetriesExhausted:
		return "retries_exhausted"
	case DropShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// DropReport describes one loss event.
type DropReport struct {
	Reason   DropReason
	Logstore string

	// Entries is the number of entries lost.
	Entries int

	// Attempts is the number of transport calls made; zero when the
	// group never reached the transport.
	Attempts int

	// Err is the last error, nil for backpressure.
	Err error
}

// ErrorSink receives drop reports. It is called from the worker
// goroutine and must not block for long or call back into the client's
// Close or Flush.
type ErrorSink func(DropReport)
