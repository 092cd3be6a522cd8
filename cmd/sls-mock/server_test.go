// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/codec"
	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/putlogs"
	"github.com/bureau-foundation/slsship/lib/shardkey"
	"github.com/bureau-foundation/slsship/lib/sls"
	"github.com/bureau-foundation/slsship/lib/transport"
)

var received = time.Date(2026, 3, 14, 7, 9, 26, 0, time.UTC)

type memorySink struct {
	mu       sync.Mutex
	captures []*codec.Capture
}

func (m *memorySink) Write(capture *codec.Capture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = append(m.captures, capture)
	return nil
}

func (m *memorySink) all() []*codec.Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*codec.Capture(nil), m.captures...)
}

type fixture struct {
	mock   *mockServer
	sink   *memorySink
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	secrets, err := parseAccessKeys([]string{"ak=sk", "other=secret"})
	if err != nil {
		t.Fatalf("parseAccessKeys: %v", err)
	}
	sink := &memorySink{}
	mock := &mockServer{
		secrets: secrets,
		sink:    sink,
		clock:   clock.Fake(received),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)
	return &fixture{mock: mock, sink: sink, server: server}
}

func (f *fixture) options() sls.Options {
	return sls.Options{
		Endpoint:        "cn-hangzhou.log.aliyuncs.com",
		Project:         "playground",
		Logstore:        "app",
		AccessKeyID:     "ak",
		AccessKeySecret: "sk",
		Scheme:          "http",
		Address:         strings.TrimPrefix(f.server.URL, "http://"),
		Topic:           "mock",
		Source:          "test-host",
		DrainInterval:   time.Hour,
		Transport:       transport.NewHTTP(f.server.Client()),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func shipOne(t *testing.T, options sls.Options, message string) error {
	t.Helper()
	client, err := sls.New(context.Background(), options)
	if err != nil {
		t.Fatalf("sls.New: %v", err)
	}
	defer client.Close()
	entry := client.NewEntry(received)
	entry.Add("message", message)
	if !client.Append(entry) {
		t.Fatal("Append refused the entry")
	}
	return client.Flush(context.Background())
}

func TestClientRoundTrip(t *testing.T) {
	for _, test := range []struct {
		name     string
		switches compress.Switches
		want     string
	}{
		{"identity", compress.Switches{}, "identity"},
		{"lz4", compress.Switches{LZ4: true}, "lz4"},
		{"deflate", compress.Switches{Deflate: true}, "deflate"},
		{"zstd", compress.Switches{Zstd: true}, "zstd"},
	} {
		t.Run(test.name, func(t *testing.T) {
			fixture := newFixture(t)
			options := fixture.options()
			options.Compression = test.switches
			options.Tags = []loggroup.Tag{{Key: "env", Value: "test"}}

			if err := shipOne(t, options, strings.Repeat("payload ", 32)); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			captures := fixture.sink.all()
			if len(captures) != 1 {
				t.Fatalf("mock captured %d requests, want 1", len(captures))
			}
			capture := captures[0]
			want := &codec.Capture{
				ReceivedAt:  received,
				AccessKeyID: "ak",
				Logstore:    "app",
				Compression: test.want,
				RawSize:     capture.RawSize,
				BodySize:    capture.BodySize,
				Topic:       "mock",
				Source:      "test-host",
				Tags:        []codec.Pair{{Key: "env", Value: "test"}},
				Logs: []codec.CapturedLog{{
					TimeNanos: received.UnixNano(),
					Contents:  []codec.Pair{{Key: "message", Value: strings.Repeat("payload ", 32)}},
				}},
			}
			if diff := cmp.Diff(want, capture); diff != "" {
				t.Errorf("capture mismatch (-want +got):\n%s", diff)
			}
			if test.want != "identity" && capture.BodySize >= capture.RawSize {
				t.Errorf("%s body is %d bytes for %d raw bytes", test.want, capture.BodySize, capture.RawSize)
			}
		})
	}
}

func TestClientShardKeyRoute(t *testing.T) {
	fixture := newFixture(t)
	options := fixture.options()
	options.ShardKeyPolicy = shardkey.Hash
	options.ShardKey = "tenant/42 & more"

	if err := shipOne(t, options, "routed"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	captures := fixture.sink.all()
	if len(captures) != 1 {
		t.Fatalf("mock captured %d requests, want 1", len(captures))
	}
	if want := shardkey.Derive("tenant/42 & more"); captures[0].ShardKey != want {
		t.Errorf("shard key = %q, want %q", captures[0].ShardKey, want)
	}
}

func TestWrongSecretIsFatal(t *testing.T) {
	fixture := newFixture(t)
	options := fixture.options()
	options.AccessKeySecret = "not-the-secret"

	err := shipOne(t, options, "rejected")
	var transportError *transport.Error
	if !errors.As(err, &transportError) {
		t.Fatalf("Flush error = %v, want a transport.Error", err)
	}
	if transportError.StatusCode != 401 || transportError.Code != codeUnauthorized || transportError.Outcome != transport.Fatal {
		t.Errorf("error = status %d code %q outcome %v, want 401 %s fatal",
			transportError.StatusCode, transportError.Code, transportError.Outcome, codeUnauthorized)
	}
	if transportError.RequestID != "1" {
		t.Errorf("request id = %q, want 1", transportError.RequestID)
	}
	if fixture.mock.requests.Load() != 1 {
		t.Errorf("fatal rejection was retried: %d requests", fixture.mock.requests.Load())
	}
	if len(fixture.sink.all()) != 0 {
		t.Error("rejected request was captured")
	}
}

func TestInjectedFailuresAreRetried(t *testing.T) {
	fixture := newFixture(t)
	fixture.mock.failRemaining.Store(2)
	options := fixture.options()
	options.MaxAttempts = 3
	options.InitialBackoff = time.Millisecond
	options.MaxBackoff = 2 * time.Millisecond

	if err := shipOne(t, options, "eventually"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := fixture.mock.requests.Load(); got != 3 {
		t.Errorf("mock saw %d requests, want 3", got)
	}
	if got := len(fixture.sink.all()); got != 1 {
		t.Errorf("mock captured %d groups, want 1", got)
	}
}

func TestMalformedRequests(t *testing.T) {
	fixture := newFixture(t)
	builder, err := putlogs.NewBuilder(putlogs.Config{
		Endpoint:        "cn-hangzhou.log.aliyuncs.com",
		Project:         "playground",
		Logstore:        "app",
		AccessKeyID:     "ak",
		AccessKeySecret: "sk",
		Scheme:          "http",
		Address:         strings.TrimPrefix(fixture.server.URL, "http://"),
	})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	sender := transport.NewHTTP(fixture.server.Client())

	for _, test := range []struct {
		name   string
		mutate  func(request *transport.Request)
		rawSize int
		status  int
		code    string
	}{
		{
			name:   "body does not match digest",
			mutate: func(request *transport.Request) { request.Body = []byte("tampered") },
			status: 400,
			code:   codeBadRequest,
		},
		{
			name:   "unknown access key",
			mutate: func(request *transport.Request) { request.Header.Set(putlogs.HeaderAuthorization, "LOG nobody:abc") },
			status: 401,
			code:   codeUnauthorized,
		},
		{
			name:    "raw size beyond limit",
			mutate:  func(request *transport.Request) {},
			rawSize: compress.MaxRawSize + 1,
			status:  400,
			code:    codeBadRequest,
		},
		{
			name:   "body is not a log group",
			mutate: func(request *transport.Request) {},
			status: 400,
			code:   codeBadRequest,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			body := []byte{0xff, 0xff, 0xff}
			rawSize := len(body)
			if test.rawSize != 0 {
				rawSize = test.rawSize
			}
			request := builder.Build(body, rawSize, compress.Identity, "", received)
			test.mutate(request)

			err := sender.Send(context.Background(), request)
			var transportError *transport.Error
			if !errors.As(err, &transportError) {
				t.Fatalf("Send error = %v, want a transport.Error", err)
			}
			if transportError.StatusCode != test.status || transportError.Code != test.code {
				t.Errorf("got %d %q, want %d %q", transportError.StatusCode, transportError.Code, test.status, test.code)
			}
		})
	}
}

func TestSinks(t *testing.T) {
	capture := &codec.Capture{ReceivedAt: received, Logstore: "app", Compression: "lz4"}

	var jsonOutput bytes.Buffer
	sink, err := newSink(&jsonOutput, "JSON", false)
	if err != nil {
		t.Fatalf("newSink(json): %v", err)
	}
	if err := sink.Write(capture); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(jsonOutput.String(), `{"received_at":"2026-03-14T07:09:26Z","access_key_id":"","logstore":"app"`) ||
		strings.Count(jsonOutput.String(), "\n") != 1 {
		t.Errorf("JSON capture = %q, want one compact line", jsonOutput.String())
	}

	var cborOutput bytes.Buffer
	sink, err = newSink(&cborOutput, formatCBOR, false)
	if err != nil {
		t.Fatalf("newSink(cbor): %v", err)
	}
	for range 2 {
		if err := sink.Write(capture); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	var printed bytes.Buffer
	if err := diagnose(&printed, cborOutput.Bytes()); err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if lines := strings.Count(printed.String(), "\n"); lines != 2 {
		t.Errorf("diagnose printed %d lines, want 2:\n%s", lines, printed.String())
	}
	if err := diagnose(io.Discard, []byte{0x1c}); err == nil {
		t.Error("diagnose accepted a reserved initial byte")
	}

	if _, err := newSink(io.Discard, "xml", false); err == nil {
		t.Error("newSink accepted an unknown format")
	}
}

func TestParseAccessKeys(t *testing.T) {
	lookup, err := parseAccessKeys([]string{"ak=sk", "id=with=equals"})
	if err != nil {
		t.Fatalf("parseAccessKeys: %v", err)
	}
	if secret, ok := lookup("id"); !ok || secret != "with=equals" {
		t.Errorf("lookup(id) = %q, %v", secret, ok)
	}
	if _, ok := lookup("missing"); ok {
		t.Error("lookup found an unconfigured key")
	}
	for _, bad := range []string{"noequals", "=secret", "id="} {
		if _, err := parseAccessKeys([]string{bad}); err == nil {
			t.Errorf("parseAccessKeys(%q) succeeded", bad)
		}
	}
}
