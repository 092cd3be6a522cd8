// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sls

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/putlogs"
	"github.com/bureau-foundation/slsship/lib/shardkey"
	"github.com/bureau-foundation/slsship/lib/transport"
)

var (
	// ErrClosed is returned by Flush once shutdown has begun.
	ErrClosed = errors.New("sls: client closed")

	// ErrGraceExceeded is returned by Close when the worker did not
	// finish within the shutdown grace period. Undelivered entries are
	// lost.
	ErrGraceExceeded = errors.New("sls: shutdown grace period exceeded")
)

// Client ships entries to one logstore. All methods are safe for
// concurrent use. A nil *Client accepts nothing and reports nothing,
// so callers can hold an optional client without nil checks.
type Client struct {
	logstore         string
	contentsCapacity int
	minLevel         slog.Level
	attemptTimeout   time.Duration
	maxAttempts      int
	initialBackoff   time.Duration
	maxBackoff       time.Duration
	shutdownGrace    time.Duration

	metadata    *loggroup.Metadata
	accumulator *accumulator
	compressor  *compress.Compressor
	resolver    shardkey.Resolver
	builder     *putlogs.Builder
	transport   transport.Transport
	clock       clock.Clock
	logger      *slog.Logger
	sink        ErrorSink
	stats       counters

	flushRequests chan chan error
	shutdown      chan struct{}
	done          chan struct{}

	// ctx bounds delivery. It survives cancellation of the context
	// given to New so the final flush can run; Close cancels it when
	// the grace period expires.
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
	stopWatch func() bool
}

// New validates options, starts the worker, and returns the client.
// When ctx is cancelled the client shuts down as if Close had been
// called. Configuration problems are returned as joined *ConfigError
// values.
func New(ctx context.Context, options Options) (*Client, error) {
	options = options.withDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}

	sender := options.Transport
	if sender == nil {
		registered, ok := transport.Default()
		if !ok {
			return nil, &ConfigError{Field: "transport", Reason: "none given and transport.Init was not called"}
		}
		sender = registered
	}

	codec, err := compress.Select(options.Compression)
	if err != nil {
		return nil, &ConfigError{Field: "compression", Reason: err.Error()}
	}
	compressor, err := compress.New(codec, options.CompressionLevel)
	if err != nil {
		return nil, &ConfigError{Field: "compression", Reason: err.Error()}
	}
	resolver, err := shardkey.New(options.ShardKeyPolicy, options.ShardKey)
	if err != nil {
		return nil, &ConfigError{Field: "shard_key", Reason: err.Error()}
	}
	builder, err := putlogs.NewBuilder(options.endpointConfig())
	if err != nil {
		return nil, &ConfigError{Field: "endpoint", Reason: err.Error()}
	}

	metadata := loggroup.NewMetadata(options.Topic, options.Source, options.TagsCapacity)
	if options.InstanceID != "" {
		metadata.AddTag(InstanceIDTag, options.InstanceID)
	}
	for _, tag := range options.Tags {
		metadata.AddTag(tag.Key, tag.Value)
	}

	deliveryContext, cancel := context.WithCancel(context.WithoutCancel(ctx))
	client := &Client{
		logstore:         options.Logstore,
		contentsCapacity: options.ContentsCapacity,
		minLevel:         options.MinLevel,
		attemptTimeout:   options.AttemptTimeout,
		maxAttempts:      options.MaxAttempts,
		initialBackoff:   options.InitialBackoff,
		maxBackoff:       options.MaxBackoff,
		shutdownGrace:    options.ShutdownGrace,
		metadata:         &metadata,
		compressor:       compressor,
		resolver:         resolver,
		builder:          builder,
		transport:        sender,
		clock:            options.Clock,
		logger:           options.Logger.With("logstore", options.Logstore),
		sink:             options.ErrorSink,
		flushRequests:    make(chan chan error),
		shutdown:         make(chan struct{}),
		done:             make(chan struct{}),
		ctx:              deliveryContext,
		cancel:           cancel,
	}
	client.accumulator = newAccumulator(&metadata, thresholds{
		sealEntries:        options.SealEntries,
		sealBytes:          options.SealBytes,
		maxBufferedEntries: options.MaxBufferedEntries,
		maxBufferedBytes:   options.MaxBufferedBytes,
		interval:           options.DrainInterval,
	}, options.Clock, &client.stats)

	go client.run()
	client.stopWatch = context.AfterFunc(ctx, func() { client.close() })

	client.logger.Debug("sls client started",
		"endpoint", builder.Host(),
		"compression", codec.String(),
		"shard_key_policy", resolver.Policy().String(),
		"drain_interval", options.DrainInterval,
	)
	return client, nil
}

// NewEntry returns an empty entry stamped with t, sized for this
// client's contents capacity.
func (c *Client) NewEntry(t time.Time) loggroup.Entry {
	capacity := 0
	if c != nil {
		capacity = c.contentsCapacity
	}
	return loggroup.NewEntry(t, capacity)
}

// Enabled reports whether entries at level pass the client's minimum
// severity.
func (c *Client) Enabled(level slog.Level) bool {
	return c != nil && level >= c.minLevel
}

// NewMetadata returns a copy of the client's group metadata (topic,
// source, instance id, and configured tags) for the caller to extend.
// Pass the result to AppendTo to batch entries under it; entries given
// the same handle share a group, so keep one handle per metadata set and
// stop modifying it once it is in use.
func (c *Client) NewMetadata() *loggroup.Metadata {
	if c == nil {
		metadata := loggroup.NewMetadata("", "", 0)
		return &metadata
	}
	return c.metadata.Clone()
}

// Append hands entry to the client under the client's own metadata. It
// never blocks and never fails loudly: false means the entry was
// dropped (backpressure) or the client is shutting down. The caller
// must not modify entry afterward.
func (c *Client) Append(entry loggroup.Entry) bool {
	return c.AppendTo(nil, entry)
}

// AppendTo is Append with the group metadata given by a handle from
// NewMetadata. A nil metadata means the client's own. Each drain cycle
// sends one request per distinct handle, in the order the handles were
// first used in that cycle.
func (c *Client) AppendTo(metadata *loggroup.Metadata, entry loggroup.Entry) bool {
	if c == nil {
		return false
	}
	return c.accumulator.append(metadata, entry)
}

// Flush seals the open group and waits until the worker has finished
// delivering it (or dropping it). It returns the delivery error, nil
// if there was nothing to send, ErrClosed once shutdown has begun, or
// ctx's error.
func (c *Client) Flush(ctx context.Context) error {
	if c == nil {
		return ErrClosed
	}
	reply := make(chan error, 1)
	select {
	case c.flushRequests <- reply:
	case <-c.shutdown:
		return ErrClosed
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake, lets the worker seal and deliver what remains,
// and waits up to the shutdown grace period for it to finish. On
// timeout it abandons the in-flight delivery and returns
// ErrGraceExceeded. Close is idempotent: later calls return the first
// call's result without waiting again.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.stopWatch()
	return c.close()
}

func (c *Client) close() error {
	c.closeOnce.Do(func() {
		c.accumulator.close()
		close(c.shutdown)

		select {
		case <-c.done:
		case <-c.clock.After(c.shutdownGrace):
			c.closeErr = ErrGraceExceeded
			c.logger.Warn("shutdown grace period exceeded, abandoning undelivered entries",
				"grace", c.shutdownGrace,
			)
		}
		c.cancel()
	})
	return c.closeErr
}

// Done is closed when the worker has exited and the client is
// Terminated.
func (c *Client) Done() <-chan struct{} {
	if c == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

// State returns the current drain state.
func (c *Client) State() DrainState {
	if c == nil {
		return Terminated
	}
	return c.accumulator.currentState()
}

// Stats returns a snapshot of this client's counters.
func (c *Client) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.stats.snapshot()
}
