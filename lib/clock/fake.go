// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock reading initial. It is safe for concurrent
// use.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{now: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a Clock whose time moves only on Advance. Pending After
// channels and AfterFunc callbacks fire during Advance in deadline
// order, ties broken by registration order.
//
// Callbacks run on the goroutine calling Advance without the clock's
// lock held, so they may call Now or arm new timers, but must not call
// Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
	changed *sync.Cond

	// sequence orders timers with equal deadlines.
	sequence uint64
}

type fakeTimer struct {
	deadline time.Time
	sequence uint64

	// Exactly one of channel and callback is set.
	channel  chan time.Time
	callback func()
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock has advanced by
// d. A non-positive d delivers immediately and arms nothing.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		channel <- c.now
		return channel
	}
	c.addLocked(&fakeTimer{deadline: c.now.Add(d), channel: channel})
	return channel
}

// AfterFunc arms f to run once the clock has advanced by d. A
// non-positive d runs f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}
	c.mu.Lock()
	timer := &fakeTimer{deadline: c.now.Add(d), callback: f}
	c.addLocked(timer)
	c.mu.Unlock()
	return &Timer{stop: func() bool { return c.remove(timer) }}
}

// Advance moves the clock forward by d and fires every timer whose
// deadline is at or before the new time. Timers armed by a callback
// during Advance fire in the same call if they are already due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		timer := c.popDue(target)
		if timer == nil {
			return
		}
		if timer.callback != nil {
			timer.callback()
			continue
		}
		select {
		case timer.channel <- target:
		default:
		}
	}
}

// WaitForTimers blocks until at least n timers are pending. Call it
// before Advance when the timer is armed by another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of armed timers that have neither
// fired nor been stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// addLocked inserts timer keeping pending sorted. c.mu must be held.
func (c *FakeClock) addLocked(timer *fakeTimer) {
	c.sequence++
	timer.sequence = c.sequence
	index, _ := slices.BinarySearchFunc(c.pending, timer, compareTimers)
	c.pending = slices.Insert(c.pending, index, timer)
	c.changed.Broadcast()
}

// popDue removes and returns the earliest timer due at target, or nil.
func (c *FakeClock) popDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 || c.pending[0].deadline.After(target) {
		return nil
	}
	timer := c.pending[0]
	c.pending = slices.Delete(c.pending, 0, 1)
	return timer
}

// remove drops timer from pending, reporting whether it was there.
func (c *FakeClock) remove(timer *fakeTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := slices.Index(c.pending, timer)
	if index < 0 {
		return false
	}
	c.pending = slices.Delete(c.pending, index, index+1)
	return true
}

func compareTimers(a, b *fakeTimer) int {
	if order := a.deadline.Compare(b.deadline); order != 0 {
		return order
	}
	return cmp.Compare(a.sequence, b.sequence)
}
