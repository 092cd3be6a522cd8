// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport is the boundary between the shipping pipeline and
// the network. A [Transport] has one operation, Send, which delivers a
// fully signed [Request] and reports the result as an error that
// [Classify] maps to one of three outcomes:
//
//   - [Success]: the endpoint accepted the group.
//   - [Retryable]: timeouts, connection failures, throttling (429), and
//     5xx responses. The caller may try again after a backoff.
//   - [Fatal]: authentication and validation failures (other 4xx) and
//     requests that could not be built. Retrying cannot help.
//
// Errors a Transport does not wrap in [*Error] classify as Retryable.
//
// [HTTP] is the net/http implementation used by the binaries. Tests and
// embedders inject their own with [Func].
//
// # Process-wide default
//
// [Init] registers a process-wide Transport. It must be called before
// the first client is constructed; clients built without an explicit
// Transport read [Default] once at construction and fail if nothing is
// registered. Only the first Init call takes effect.
package transport
