// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the helpers use.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first. what describes
// the wait in the failure message and may be a format followed by its
// arguments.
//
//	sent := testutil.RequireReceive(t, sender.sent, 5*time.Second, "group %d", i)
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for %s", describe(what))
		}
		return value
	case <-time.After(timeout): //nolint:realclock test hang guard
		t.Fatalf("no value after %v while waiting for %s", timeout, describe(what))
	}
	panic("unreachable")
}

// RequireClosed fails the test unless ch is closed (or delivers) within
// timeout. Use it on done channels.
//
//	testutil.RequireClosed(t, client.Done(), 5*time.Second, "worker exit")
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout): //nolint:realclock test hang guard
		t.Fatalf("channel still open after %v while waiting for %s", timeout, describe(what))
	}
}

func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "(unspecified)"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
