// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/slsship/lib/netutil"
)

// HTTP sends requests with a net/http client.
type HTTP struct {
	client *http.Client
}

// NewHTTP returns an HTTP transport. A nil client means
// http.DefaultClient. The client's own Timeout should be zero or longer
// than the per-attempt timeout; attempts are bounded through ctx.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client}
}

// Send performs one PutLogs attempt.
func (h *HTTP) Send(ctx context.Context, request *Request) error {
	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, request.URL, bytes.NewReader(request.Body))
	if err != nil {
		return &Error{Outcome: Fatal, Err: fmt.Errorf("building request: %w", err)}
	}
	httpRequest.Header = request.Header.Clone()
	if request.Host != "" {
		httpRequest.Host = request.Host
	}
	httpRequest.ContentLength = int64(len(request.Body))

	response, err := h.client.Do(httpRequest)
	if err != nil {
		// Timeouts, refused and reset connections, TLS handshake
		// failures: all worth another attempt.
		return &Error{Outcome: Retryable, Err: fmt.Errorf("%s: %w", failureKind(err), err)}
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		netutil.Drain(response.Body)
		return nil
	}
	return ResponseError(response)
}

func failureKind(err error) string {
	switch {
	case netutil.IsTimeout(err):
		return "timeout"
	case netutil.IsConnectionError(err):
		return "connection failed"
	default:
		return "request failed"
	}
}
