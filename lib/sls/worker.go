// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/slsproto"
	"github.com/bureau-foundation/slsship/lib/transport"
)

// run is the client's single worker. It seals the open group when a
// threshold is crossed or the group has been open for the drain
// interval, delivers it, and on shutdown performs one final cycle
// before terminating. At most one delivery is in progress at a time,
// so groups reach the transport in seal order.
func (c *Client) run() {
	defer close(c.done)

	// The drain timer is armed for the open group's deadline
	// (openedAt + interval), not as a free-running ticker, so an entry
	// waits at most one interval.
	timerFired := make(chan struct{}, 1)
	var (
		timer    *clock.Timer
		armedFor time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			armedFor = time.Time{}
		}
	}

	for {
		now := c.clock.Now()
		sealNow, deadline := c.accumulator.due(now)
		if sealNow {
			stopTimer()
			c.cycle()
			continue
		}
		if !deadline.IsZero() && !deadline.Equal(armedFor) {
			stopTimer()
			armedFor = deadline
			timer = c.clock.AfterFunc(deadline.Sub(now), func() {
				select {
				case timerFired <- struct{}{}:
				default:
				}
			})
		}

		select {
		case <-c.accumulator.notify:
		case <-timerFired:
		case reply := <-c.flushRequests:
			stopTimer()
			reply <- c.cycle()
		case <-c.shutdown:
			stopTimer()
			c.finish()
			return
		}
	}
}

// finish runs the final cycle after intake has closed.
func (c *Client) finish() {
	err := c.cycle()
	if discarded := c.accumulator.terminate(); discarded > 0 {
		c.stats.add(entriesLost, uint64(discarded))
	}
	stats := c.stats.snapshot()
	c.logger.Info("sls client terminated",
		"final_flush_error", err,
		"groups_sent", stats.GroupsSent,
		"groups_dropped", stats.GroupsDropped,
		"entries_dropped", stats.EntriesDropped,
	)
}

// cycle seals the open groups and delivers them one at a time in seal
// order. It returns the joined delivery errors, or nil when there was
// nothing to send.
func (c *Client) cycle() error {
	groups, dropped := c.accumulator.sealAndSwap()
	if dropped > 0 {
		c.report(DropReport{Reason: DropBackpressure, Logstore: c.logstore, Entries: dropped})
	}
	if len(groups) == 0 {
		c.accumulator.settle()
		return nil
	}
	c.accumulator.flushing()
	var errs []error
	for _, group := range groups {
		if err := c.deliver(group); err != nil {
			errs = append(errs, err)
		}
		c.accumulator.recycle(group.Entries)
		group.Entries = nil
	}
	c.accumulator.settle()
	return errors.Join(errs...)
}

// deliver pushes one sealed group through encode, compress, shard key
// resolution, signing, and the transport with bounded retries.
func (c *Client) deliver(group *loggroup.Group) error {
	group.ShardKey, _ = c.resolver.Resolve()

	raw := slsproto.Encode(group)
	if expected := slsproto.EncodedLen(group); len(raw) != expected {
		err := fmt.Errorf("encoder wrote %d bytes, size accounting expected %d", len(raw), expected)
		c.drop(group, DropEncoding, 0, err)
		return err
	}

	body, err := c.compressor.Compress(raw)
	if err != nil {
		c.drop(group, DropCompression, 0, err)
		return err
	}

	request := c.builder.Build(body, len(raw), c.compressor.Codec(), group.ShardKey, c.clock.Now())

	// Shutdown starting while this group backs off ends the backoff: one
	// immediate attempt, then the group is dropped, leaving the grace
	// period to the final cycle. Groups delivered after shutdown began
	// keep their full retry budget.
	interrupt := c.shutdown
	select {
	case <-c.shutdown:
		interrupt = nil
	default:
	}
	lastAttempt := false

	backoff := c.initialBackoff
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			c.stats.add(retries, 1)
		}
		err := c.send(request)
		outcome := transport.Classify(err)
		if outcome == transport.Success {
			c.stats.add(groupsSent, 1)
			c.stats.add(entriesSent, uint64(group.Len()))
			c.stats.add(bytesSent, uint64(len(body)))
			c.stats.add(rawBytesSent, uint64(len(raw)))
			return nil
		}

		switch {
		case c.ctx.Err() != nil:
			c.drop(group, DropShutdown, attempt, err)
			return err
		case outcome == transport.Fatal:
			c.drop(group, DropFatal, attempt, err)
			return err
		case lastAttempt:
			c.drop(group, DropShutdown, attempt, err)
			return err
		case attempt >= c.maxAttempts:
			c.drop(group, DropRetriesExhausted, attempt, err)
			return err
		}

		c.logger.Warn("putlogs attempt failed, will retry",
			"error", err,
			"attempt", attempt,
			"backoff", backoff,
			"entries", group.Len(),
		)
		select {
		case <-c.clock.After(backoff):
		case <-interrupt:
			lastAttempt = true
		case <-c.ctx.Done():
			err = errors.Join(err, c.ctx.Err())
			c.drop(group, DropShutdown, attempt, err)
			return err
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// send makes one bounded attempt. An attempt that exhausts its own
// timeout is retryable regardless of how the transport classified it.
func (c *Client) send(request *transport.Request) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.attemptTimeout)
	defer cancel()
	err := c.transport.Send(ctx, request)
	if err != nil && c.ctx.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &transport.Error{
			Outcome: transport.Retryable,
			Err:     fmt.Errorf("attempt timed out after %s: %w", c.attemptTimeout, err),
		}
	}
	return err
}

func (c *Client) drop(group *loggroup.Group, reason DropReason, attempts int, err error) {
	c.stats.add(groupsDropped, 1)
	c.stats.add(entriesLost, uint64(group.Len()))
	c.report(DropReport{
		Reason:   reason,
		Logstore: c.logstore,
		Entries:  group.Len(),
		Attempts: attempts,
		Err:      err,
	})
}

func (c *Client) report(report DropReport) {
	c.logger.Warn("log entries dropped",
		"reason", report.Reason.String(),
		"entries", report.Entries,
		"attempts", report.Attempts,
		"error", report.Err,
	)
	if c.sink != nil {
		c.sink(report)
	}
}
