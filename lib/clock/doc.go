// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source behind every deadline, backoff, and
// drain timer in slsship.
//
// Components take a Clock instead of calling time.Now, time.After, or
// time.AfterFunc directly. Production code passes Real(). Tests pass
// Fake(), whose time moves only when the test calls Advance, so a drain
// interval or a retry backoff fires exactly when the test says so.
//
// A goroutine that arms a timer on a FakeClock races with the test that
// advances it. WaitForTimers closes that race:
//
//	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client, _ := sls.New(ctx, sls.Options{Clock: clk, ...})
//	client.Append(entry)
//	clk.WaitForTimers(1)             // the worker armed its drain timer
//	clk.Advance(sls.DefaultDrainInterval) // and now it fires
package clock
