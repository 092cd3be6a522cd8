// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sls is the in-process shipping engine: it batches log
// entries produced on application hot paths and delivers them to one
// logstore of the log ingestion service.
//
// A [Client] owns three things:
//
//   - An accumulator holding the open group. [Client.Append] adds an
//     entry under a short mutex and never blocks, allocates beyond the
//     entry slice's amortized growth, or touches the network.
//   - A single background worker that seals the open group when it
//     crosses a size threshold or has been open for the drain interval,
//     then encodes, compresses, signs, and sends it. Groups are sent one
//     at a time, in seal order.
//   - A shutdown guard. [Client.Close] (or cancellation of the context
//     passed to [New]) stops intake, seals whatever is open, and gives
//     the worker a bounded grace period to deliver it.
//
// # Delivery
//
// Delivery is at most once per group. Retryable failures (timeouts,
// connection errors, throttling, 5xx) are retried with exponential
// backoff up to MaxAttempts; fatal failures and exhausted retries drop
// the group. Every drop is counted in [Stats] and reported to the
// configured [ErrorSink] from the worker goroutine. Producers never see
// a delivery error.
//
// # Backpressure
//
// While the worker is busy, entries keep landing in the open group.
// Once it holds MaxBufferedEntries entries or MaxBufferedBytes encoded
// bytes, further entries are dropped (newest first) and counted; the
// producer call still returns immediately. An entry that alone exceeds
// MaxBufferedBytes is always dropped.
//
// # States
//
// The accumulator moves through [Idle], [Accumulating], [Sealing],
// [Flushing], [ShuttingDown], and [Terminated]. Terminated is
// absorbing: Append returns false and Flush returns [ErrClosed].
//
// # Data loss boundary
//
// Nothing is persisted. Entries buffered when the process dies, or
// still undelivered when the shutdown grace period expires, are lost.
package sls
