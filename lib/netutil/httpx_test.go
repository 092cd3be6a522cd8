// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestReadResponse(t *testing.T) {
	t.Run("normal body", func(t *testing.T) {
		data, err := ReadResponse(strings.NewReader(`{"errorCode":"Unauthorized"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"errorCode":"Unauthorized"}` {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadResponse(&failReader{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})

	t.Run("truncates at limit", func(t *testing.T) {
		data, err := ReadResponse(io.LimitReader(zeroReader{}, MaxResponseSize+100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if int64(len(data)) != MaxResponseSize {
			t.Fatalf("read %d bytes, want %d", len(data), MaxResponseSize)
		}
	})
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(bytes.NewReader(make([]byte, 64)), 64)
	if err != nil {
		t.Fatalf("body at the limit: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("read %d bytes, want 64", len(data))
	}

	if _, err := ReadLimited(bytes.NewReader(make([]byte, 65)), 64); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("body over the limit: error = %v, want ErrTooLarge", err)
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded is a timeout")
	}
	if !IsTimeout(fmt.Errorf("post: %w", os.ErrDeadlineExceeded)) {
		t.Error("wrapped os.ErrDeadlineExceeded is a timeout")
	}
	if IsTimeout(context.Canceled) {
		t.Error("context.Canceled is not a timeout")
	}
	if IsTimeout(nil) {
		t.Error("nil is not a timeout")
	}
}

func TestIsConnectionError(t *testing.T) {
	for _, err := range []error{
		io.EOF,
		io.ErrUnexpectedEOF,
		net.ErrClosed,
		&net.OpError{Op: "read", Err: &os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}},
		&net.OpError{Op: "dial", Err: errors.New("no route to host")},
		fmt.Errorf("write: %w", syscall.EPIPE),
	} {
		if !IsConnectionError(err) {
			t.Errorf("IsConnectionError(%v) = false, want true", err)
		}
	}
	for _, err := range []error{nil, errors.New("bad request"), context.DeadlineExceeded} {
		if IsConnectionError(err) {
			t.Errorf("IsConnectionError(%v) = true, want false", err)
		}
	}
}

type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read failure")
}

type zeroReader struct{}

func (zeroReader) Read(buffer []byte) (int, error) {
	clear(buffer)
	return len(buffer), nil
}
