// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sls

import (
	"fmt"
	"sync"
	"time"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/slsproto"
)

// DrainState is the accumulator's position in the drain cycle.
type DrainState uint8

const (
	// Idle: the open group is empty and nothing is in flight.
	Idle DrainState = iota

	// Accumulating: the open group holds entries and nothing is in
	// flight.
	Accumulating

	// Sealing: the worker is swapping the open group out.
	Sealing

	// Flushing: a sealed group is in the encode, compress, send
	// pipeline.
	Flushing

	// ShuttingDown: intake is closed; the worker is delivering what
	// remains.
	ShuttingDown

	// Terminated: the worker has exited. Absorbing.
	Terminated
)

func (s DrainState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Sealing:
		return "sealing"
	case Flushing:
		return "flushing"
	case ShuttingDown:
		return "shutting_down"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// thresholds bound the open groups.
type thresholds struct {
	sealEntries        int
	sealBytes          int
	maxBufferedEntries int
	maxBufferedBytes   int
	interval           time.Duration
}

// recycledSlices bounds how many delivered entry slices the accumulator
// keeps for reuse.
const recycledSlices = 4

// accumulator owns the open groups: one per metadata handle, in the
// order their first entry arrived. Every field is guarded by mu, and
// every state transition happens under it. The critical section never
// includes encoding of whole groups or I/O.
type accumulator struct {
	mu       sync.Mutex
	metadata *loggroup.Metadata
	limits   thresholds
	clock    clock.Clock
	stats    *counters

	open     []*openGroup
	byHandle map[*loggroup.Metadata]*openGroup
	count    int
	bytes    int
	openedAt time.Time
	state    DrainState
	closed   bool

	// recycled holds emptied entry slices from delivered groups so a
	// new cycle does not regrow them from zero under the lock.
	recycled [][]loggroup.Entry

	// droppedSinceReport counts backpressure drops the worker has not
	// yet reported to the error sink.
	droppedSinceReport int

	// notify wakes the worker when a cycle opens or crosses a seal
	// threshold. Capacity 1: a pending wakeup absorbs later ones.
	notify chan struct{}
}

type openGroup struct {
	metadata *loggroup.Metadata
	entries  []loggroup.Entry
}

func newAccumulator(metadata *loggroup.Metadata, limits thresholds, clk clock.Clock, stats *counters) *accumulator {
	return &accumulator{
		metadata: metadata,
		limits:   limits,
		clock:    clk,
		stats:    stats,
		byHandle: make(map[*loggroup.Metadata]*openGroup),
		notify:   make(chan struct{}, 1),
	}
}

// append adds entry to the open group for metadata, or for the client
// metadata when it is nil. It returns false, without waiting, when
// intake is closed or the buffered bounds are reached. The bounds and
// seal thresholds count every open group together.
func (a *accumulator) append(metadata *loggroup.Metadata, entry loggroup.Entry) bool {
	size := slsproto.EntrySize(&entry)
	if metadata == nil {
		metadata = a.metadata
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.stats.add(entriesRejected, 1)
		return false
	}
	if a.count >= a.limits.maxBufferedEntries || a.bytes+size > a.limits.maxBufferedBytes {
		a.droppedSinceReport++
		a.mu.Unlock()
		a.stats.add(entriesDropped, 1)
		return false
	}
	opened := a.count == 0
	if opened {
		a.openedAt = a.clock.Now()
		if a.state == Idle {
			a.state = Accumulating
		}
	}
	group, ok := a.byHandle[metadata]
	if !ok {
		group = &openGroup{metadata: metadata, entries: a.takeSlice()}
		a.byHandle[metadata] = group
		a.open = append(a.open, group)
	}
	group.entries = append(group.entries, entry)
	a.count++
	a.bytes += size
	full := a.count >= a.limits.sealEntries || a.bytes >= a.limits.sealBytes
	a.mu.Unlock()

	a.stats.add(entriesAccepted, 1)
	if opened || full {
		select {
		case a.notify <- struct{}{}:
		default:
		}
	}
	return true
}

// takeSlice returns a recycled entry slice, or nil. a.mu must be held.
func (a *accumulator) takeSlice() []loggroup.Entry {
	last := len(a.recycled) - 1
	if last < 0 {
		return nil
	}
	entries := a.recycled[last]
	a.recycled[last] = nil
	a.recycled = a.recycled[:last]
	return entries
}

// recycle returns a delivered group's entries for reuse. The caller
// must hold no other reference to them.
func (a *accumulator) recycle(entries []loggroup.Entry) {
	if cap(entries) == 0 {
		return
	}
	clear(entries)
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.recycled) < recycledSlices {
		a.recycled = append(a.recycled, entries[:0])
	}
}

// due reports whether the open groups should be sealed at now, and if
// not, when the drain interval will make them due. A zero deadline
// means nothing is open and no timer is needed.
func (a *accumulator) due(now time.Time) (sealNow bool, deadline time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return false, time.Time{}
	}
	deadline = a.openedAt.Add(a.limits.interval)
	if a.count >= a.limits.sealEntries || a.bytes >= a.limits.sealBytes || !now.Before(deadline) {
		return true, deadline
	}
	return false, deadline
}

// sealAndSwap seals every open group, in the order each was opened,
// and starts a fresh cycle. Entries appended after it returns land in
// new groups.
func (a *accumulator) sealAndSwap() ([]*loggroup.Group, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	dropped := a.droppedSinceReport
	a.droppedSinceReport = 0
	if a.count == 0 {
		return nil, dropped
	}
	groups := make([]*loggroup.Group, len(a.open))
	for i, open := range a.open {
		groups[i] = &loggroup.Group{Metadata: *open.metadata, Entries: open.entries}
	}
	clear(a.open)
	a.open = a.open[:0]
	clear(a.byHandle)
	a.count = 0
	a.bytes = 0
	if a.state != ShuttingDown {
		a.state = Sealing
	}
	return groups, dropped
}

// flushing marks a sealed group as handed to the pipeline.
func (a *accumulator) flushing() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Sealing {
		a.state = Flushing
	}
}

// settle ends a drain cycle: the state reflects whether entries arrived
// while the group was in flight.
func (a *accumulator) settle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == ShuttingDown || a.state == Terminated {
		return
	}
	if a.count > 0 {
		a.state = Accumulating
	} else {
		a.state = Idle
	}
}

// close stops intake. It reports whether this call closed it.
func (a *accumulator) close() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.closed = true
	if a.state != Terminated {
		a.state = ShuttingDown
	}
	return true
}

// terminate records that the worker has exited. Anything still open is
// discarded and returned for accounting.
func (a *accumulator) terminate() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.state = Terminated
	discarded := a.count
	clear(a.open)
	a.open = nil
	clear(a.byHandle)
	a.count = 0
	a.bytes = 0
	return discarded
}

func (a *accumulator) currentState() DrainState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}
