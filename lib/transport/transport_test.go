// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newRequest(url string) *Request {
	header := make(http.Header)
	header.Set("Content-Type", "application/x-protobuf")
	header.Set("x-log-bodyrawsize", "3")
	return &Request{Method: http.MethodPost, URL: url, Header: header, Body: []byte("abc")}
}

func TestHTTPSendSuccess(t *testing.T) {
	var gotBody []byte
	var gotHeader http.Header
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		gotBody, _ = io.ReadAll(request.Body)
		gotHeader = request.Header.Clone()
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	request := newRequest(server.URL + "/logstores/app/shards/lb")
	if err := NewHTTP(server.Client()).Send(context.Background(), request); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(gotBody) != "abc" {
		t.Fatalf("server received body %q, want %q", gotBody, "abc")
	}
	if gotHeader.Get("x-log-bodyrawsize") != "3" {
		t.Fatalf("server received x-log-bodyrawsize %q", gotHeader.Get("x-log-bodyrawsize"))
	}
	if request.Header.Get("Host") != "" {
		t.Fatal("Send modified the caller's request headers")
	}
}

func TestHTTPSendClassifiesStatus(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		outcome Outcome
		code    string
	}{
		{http.StatusUnauthorized, `{"errorCode":"SignatureNotMatch","errorMessage":"signature mismatch"}`, Fatal, "SignatureNotMatch"},
		{http.StatusBadRequest, `{"errorCode":"PostBodyInvalid","errorMessage":"bad body"}`, Fatal, "PostBodyInvalid"},
		{http.StatusNotFound, `not json`, Fatal, ""},
		{http.StatusTooManyRequests, `{"errorCode":"WriteQuotaExceed","errorMessage":"slow down"}`, Retryable, "WriteQuotaExceed"},
		{http.StatusInternalServerError, `{"errorCode":"InternalServerError","errorMessage":"oops"}`, Retryable, "InternalServerError"},
		{http.StatusServiceUnavailable, ``, Retryable, ""},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.Header().Set(RequestIDHeader, "req-1")
				writer.WriteHeader(test.status)
				io.WriteString(writer, test.body)
			}))
			defer server.Close()

			err := NewHTTP(server.Client()).Send(context.Background(), newRequest(server.URL))
			if got := Classify(err); got != test.outcome {
				t.Fatalf("Classify = %s, want %s (err %v)", got, test.outcome, err)
			}
			var transportError *Error
			if !errors.As(err, &transportError) {
				t.Fatalf("error %v is not *Error", err)
			}
			if transportError.StatusCode != test.status {
				t.Errorf("StatusCode = %d, want %d", transportError.StatusCode, test.status)
			}
			if transportError.Code != test.code {
				t.Errorf("Code = %q, want %q", transportError.Code, test.code)
			}
			if transportError.RequestID != "req-1" {
				t.Errorf("RequestID = %q, want req-1", transportError.RequestID)
			}
		})
	}
}

func TestHTTPSendTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-release:
		case <-request.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewHTTP(server.Client()).Send(ctx, newRequest(server.URL))
	if Classify(err) != Retryable {
		t.Fatalf("Classify(%v) = %s, want retryable", err, Classify(err))
	}
}

func TestHTTPSendConnectionRefusedIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewHTTP(nil).Send(context.Background(), newRequest(url))
	if Classify(err) != Retryable {
		t.Fatalf("Classify(%v) = %s, want retryable", err, Classify(err))
	}
}

func TestHTTPSendMalformedURLIsFatal(t *testing.T) {
	err := NewHTTP(nil).Send(context.Background(), newRequest("http://[::1"))
	if Classify(err) != Fatal {
		t.Fatalf("Classify(%v) = %s, want fatal", err, Classify(err))
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != Success {
		t.Error("nil must classify as success")
	}
	if Classify(errors.New("dial tcp: no such host")) != Retryable {
		t.Error("unclassified errors must be retryable")
	}
	wrapped := fmt.Errorf("attempt 2: %w", &Error{Outcome: Fatal, StatusCode: 403})
	if Classify(wrapped) != Fatal {
		t.Error("a wrapped *Error must keep its outcome")
	}
}

func TestStatusOutcome(t *testing.T) {
	for status, want := range map[int]Outcome{
		200: Success,
		204: Success,
		400: Fatal,
		401: Fatal,
		403: Fatal,
		408: Retryable,
		413: Fatal,
		429: Retryable,
		500: Retryable,
		502: Retryable,
	} {
		if got := StatusOutcome(status); got != want {
			t.Errorf("StatusOutcome(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestInitRegistersOnce(t *testing.T) {
	if _, ok := Default(); ok {
		t.Fatal("Default reported a transport before Init")
	}
	first := Func(func(context.Context, *Request) error { return nil })
	second := Func(func(context.Context, *Request) error { return errors.New("second") })

	if !Init(first) {
		t.Fatal("first Init did not register")
	}
	if Init(second) {
		t.Fatal("second Init replaced the registration")
	}
	registered, ok := Default()
	if !ok {
		t.Fatal("Default reported no transport after Init")
	}
	if err := registered.Send(context.Background(), &Request{}); err != nil {
		t.Fatalf("Default is not the first registered transport: %v", err)
	}
}
