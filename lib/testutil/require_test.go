// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// recordingTB captures the first Fatalf and stops the calling goroutine
// the way testing.T does.
type recordingTB struct {
	message string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
	panic(r)
}

func capture(run func(tb TB)) (message string) {
	tb := &recordingTB{}
	defer func() {
		if recovered := recover(); recovered != nil && recovered != tb {
			panic(recovered)
		}
		message = tb.message
	}()
	run(tb)
	return ""
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Fatalf("RequireReceive = %d, want 7", got)
	}

	message := capture(func(tb TB) {
		RequireReceive(tb, make(chan int), time.Millisecond, "group %d", 3)
	})
	if message != "no value after 1ms while waiting for group 3" {
		t.Errorf("timeout message = %q", message)
	}

	closed := make(chan int)
	close(closed)
	message = capture(func(tb TB) { RequireReceive(tb, closed, time.Second) })
	if message != "channel closed while waiting for (unspecified)" {
		t.Errorf("closed message = %q", message)
	}
}

func TestRequireClosed(t *testing.T) {
	done := make(chan struct{})
	close(done)
	RequireClosed(t, done, time.Second, "done")

	message := capture(func(tb TB) {
		RequireClosed(tb, make(chan struct{}), time.Millisecond, "worker exit")
	})
	if message != "channel still open after 1ms while waiting for worker exit" {
		t.Errorf("timeout message = %q", message)
	}
}
