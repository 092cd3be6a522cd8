// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package slshandler is a log/slog handler that turns records into
// log entries for an sls client, so an application's ordinary slog
// calls are shipped without touching the network on the calling
// goroutine.
//
// Each record becomes one entry stamped with the record time, carrying
// "level" and "message", then "file" and "line" when source capture is
// on, then handler attributes (from WithAttrs) and record attributes in
// order. Groups flatten into dotted keys: WithGroup("http") followed by
// slog.Int("status", 200) yields "http.status" = "200".
//
// The shipping client's own diagnostics must go to a different handler;
// routing them here would feed delivery failures back into delivery.
package slshandler
