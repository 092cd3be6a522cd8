// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bureau-foundation/slsship/lib/netutil"
)

// Outcome classifies the result of one Send.
type Outcome uint8

const (
	Success Outcome = iota
	Retryable
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", o)
	}
}

// Error is a classified Send failure. StatusCode is zero when no
// response was received.
type Error struct {
	Outcome Outcome

	// StatusCode is the HTTP status of the response, if any.
	StatusCode int

	// Code and Message are the errorCode and errorMessage fields of the
	// ingestion service's JSON error body. Message falls back to the raw
	// body when it is not JSON.
	Code    string
	Message string

	// RequestID is the x-log-requestid response header, for support
	// tickets.
	RequestID string

	// Err is the underlying error for failures without a response.
	Err error
}

func (err *Error) Error() string {
	var builder strings.Builder
	builder.WriteString("putlogs ")
	builder.WriteString(err.Outcome.String())
	if err.StatusCode != 0 {
		fmt.Fprintf(&builder, ": HTTP %d", err.StatusCode)
	}
	if err.Code != "" {
		fmt.Fprintf(&builder, " %s", err.Code)
	}
	if err.Message != "" {
		fmt.Fprintf(&builder, ": %s", err.Message)
	}
	if err.Err != nil {
		fmt.Fprintf(&builder, ": %v", err.Err)
	}
	if err.RequestID != "" {
		fmt.Fprintf(&builder, " (request %s)", err.RequestID)
	}
	return builder.String()
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Classify maps a Send result to its outcome. nil is Success; an
// [*Error] anywhere in the chain carries its own outcome; everything
// else (timeouts, refused connections, resets) is Retryable.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	var transportError *Error
	if errors.As(err, &transportError) {
		return transportError.Outcome
	}
	return Retryable
}

// StatusOutcome classifies an HTTP status code. 408, 429, and 5xx are
// Retryable; any other non-2xx status is Fatal.
func StatusOutcome(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Success
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return Retryable
	case status >= 500:
		return Retryable
	default:
		return Fatal
	}
}

// RequestIDHeader carries the ingestion service's request identifier.
const RequestIDHeader = "x-log-requestid"

// serviceError is the JSON error body returned by the ingestion service.
type serviceError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// ResponseError builds the Error for a non-2xx response. It reads (a
// bounded prefix of) the body; the caller still closes it.
func ResponseError(response *http.Response) *Error {
	result := &Error{
		Outcome:    StatusOutcome(response.StatusCode),
		StatusCode: response.StatusCode,
		RequestID:  response.Header.Get(RequestIDHeader),
	}
	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		result.Err = fmt.Errorf("reading error body: %w", err)
		return result
	}
	var decoded serviceError
	if json.Unmarshal(body, &decoded) == nil && (decoded.Code != "" || decoded.Message != "") {
		result.Code = decoded.Code
		result.Message = decoded.Message
		return result
	}
	result.Message = strings.TrimSpace(string(body))
	return result
}
