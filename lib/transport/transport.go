// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Request is a fully built and signed PutLogs call. Transports must not
// modify it: the retry loop sends the same Request on every attempt.
type Request struct {
	Method string
	URL    string

	// Host overrides the Host header when the URL addresses a different
	// dial target than the virtual host being signed for. Empty means
	// the URL's host.
	Host string

	Header http.Header
	Body   []byte
}

// Transport sends a request and returns nil on success or an error that
// [Classify] can place. Send must honor ctx cancellation and deadline;
// the caller bounds every attempt with a timeout.
type Transport interface {
	Send(ctx context.Context, request *Request) error
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, request *Request) error

// Send calls f.
func (f Func) Send(ctx context.Context, request *Request) error {
	return f(ctx, request)
}

// registered holds the process-wide default. The pointer is set at most
// once.
var registered atomic.Pointer[registration]

type registration struct {
	transport Transport
}

// Init registers transport as the process-wide default. Only the first
// call has an effect; it reports whether this call was that one. Init
// panics on a nil transport.
func Init(transport Transport) bool {
	if transport == nil {
		panic("transport: Init called with nil Transport")
	}
	return registered.CompareAndSwap(nil, &registration{transport: transport})
}

// Default returns the Transport registered by Init.
func Default() (Transport, bool) {
	current := registered.Load()
	if current == nil {
		return nil, false
	}
	return current.transport, true
}
