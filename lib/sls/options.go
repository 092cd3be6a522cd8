// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sls

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/inline"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/putlogs"
	"github.com/bureau-foundation/slsship/lib/shardkey"
	"github.com/bureau-foundation/slsship/lib/transport"
)

// Defaults applied by New to zero-valued options.
const (
	DefaultDrainInterval      = 5 * time.Second
	DefaultSealEntries        = 2048
	DefaultSealBytes          = 2 << 20
	DefaultMaxBufferedEntries = 4096
	DefaultMaxBufferedBytes   = 4 << 20
	DefaultMaxAttempts        = 5
	DefaultInitialBackoff     = 200 * time.Millisecond
	DefaultMaxBackoff         = 5 * time.Second
	DefaultAttemptTimeout     = 10 * time.Second
	DefaultShutdownGrace      = 5 * time.Second
)

// InstanceIDTag is the group tag carrying Options.InstanceID.
const InstanceIDTag = "instance_id"

// Options configures a Client. Endpoint, Project, Logstore, and the
// access key pair are required; everything else has a default.
type Options struct {
	Endpoint        string
	Project         string
	Logstore        string
	AccessKeyID     string
	AccessKeySecret string

	// Scheme and Address are passed to putlogs.Config: "http" plus a
	// local host:port reach a mock endpoint.
	Scheme  string
	Address string

	// Topic, Source, and Tags are stamped on every group. Source
	// defaults to the host name.
	Topic  string
	Source string
	Tags   []loggroup.Tag

	// InstanceID, when set, is added as the first group tag under
	// InstanceIDTag so groups from replicas of one service can be told
	// apart.
	InstanceID string

	ShardKeyPolicy shardkey.Policy
	ShardKey       string

	// MinLevel is the lowest severity Enabled accepts. The zero value
	// is slog.LevelInfo.
	MinLevel slog.Level

	DrainInterval time.Duration

	// ContentsCapacity and TagsCapacity are the inline store sizes for
	// entry contents and group tags: 2, 4, 8, or 16. Zero means 8.
	ContentsCapacity int
	TagsCapacity     int

	// Compression enables at most one codec. CompressionLevel applies
	// to deflate only.
	Compression      compress.Switches
	CompressionLevel int

	// SealEntries and SealBytes seal the open group early. The
	// MaxBuffered bounds cap the open group; entries beyond them are
	// dropped.
	SealEntries        int
	SealBytes          int
	MaxBufferedEntries int
	MaxBufferedBytes   int

	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
	ShutdownGrace  time.Duration

	// Transport sends requests. Nil means the transport registered
	// with transport.Init; New fails if there is none.
	Transport transport.Transport

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger receives the client's own diagnostics. It must not route
	// back into this client. Nil means a JSON logger on stderr.
	Logger *slog.Logger

	// ErrorSink receives every drop. Nil means drops are only logged.
	ErrorSink ErrorSink
}

// ConfigError reports one invalid option. New returns all of them
// joined with errors.Join; match individual ones with errors.As.
type ConfigError struct {
	Field  string
	Reason string
}

func (err *ConfigError) Error() string {
	return "sls: invalid " + err.Field + ": " + err.Reason
}

func (o Options) withDefaults() Options {
	if o.Source == "" {
		if hostname, err := os.Hostname(); err == nil {
			o.Source = hostname
		}
	}
	setDefault(&o.DrainInterval, DefaultDrainInterval)
	setDefault(&o.ContentsCapacity, inline.DefaultCapacity)
	setDefault(&o.TagsCapacity, inline.DefaultCapacity)
	setDefault(&o.SealEntries, DefaultSealEntries)
	setDefault(&o.SealBytes, DefaultSealBytes)
	setDefault(&o.MaxBufferedEntries, max(DefaultMaxBufferedEntries, o.SealEntries))
	setDefault(&o.MaxBufferedBytes, max(DefaultMaxBufferedBytes, o.SealBytes))
	setDefault(&o.MaxAttempts, DefaultMaxAttempts)
	setDefault(&o.InitialBackoff, DefaultInitialBackoff)
	setDefault(&o.MaxBackoff, max(DefaultMaxBackoff, o.InitialBackoff))
	setDefault(&o.AttemptTimeout, DefaultAttemptTimeout)
	setDefault(&o.ShutdownGrace, DefaultShutdownGrace)
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return o
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// Validate checks the options as New would see them after defaults.
// It does not check the Transport, which may come from transport.Init.
func (o Options) Validate() error {
	return o.withDefaults().validate()
}

func (o Options) validate() error {
	var errs []error
	invalid := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if err := o.endpointConfig().Validate(); err != nil {
		invalid("endpoint", "%v", err)
	}
	if _, err := shardkey.New(o.ShardKeyPolicy, o.ShardKey); err != nil {
		invalid("shard_key", "%v", err)
	}
	if _, err := compress.Select(o.Compression); err != nil {
		invalid("compression", "%v", err)
	}
	if o.CompressionLevel < 0 {
		invalid("compression.level", "must not be negative, got %d", o.CompressionLevel)
	}
	if !inline.ValidCapacity(o.ContentsCapacity) {
		invalid("contents_capacity", "must be 2, 4, 8, or 16, got %d", o.ContentsCapacity)
	}
	if !inline.ValidCapacity(o.TagsCapacity) {
		invalid("tags_capacity", "must be 2, 4, 8, or 16, got %d", o.TagsCapacity)
	}
	if o.DrainInterval < 0 {
		invalid("drain_interval", "must be positive, got %s", o.DrainInterval)
	}
	if o.SealEntries < 0 || o.SealEntries > o.MaxBufferedEntries {
		invalid("seal_entries", "must be between 1 and max_buffered_entries (%d), got %d", o.MaxBufferedEntries, o.SealEntries)
	}
	if o.MaxBufferedBytes > compress.MaxRawSize {
		invalid("max_buffered_bytes", "must not exceed the %d byte request limit, got %d", compress.MaxRawSize, o.MaxBufferedBytes)
	}
	if o.SealBytes < 0 || o.SealBytes > o.MaxBufferedBytes {
		invalid("seal_bytes", "must be between 1 and max_buffered_bytes (%d), got %d", o.MaxBufferedBytes, o.SealBytes)
	}
	if o.MaxAttempts < 0 {
		invalid("max_attempts", "must be positive, got %d", o.MaxAttempts)
	}
	if o.InitialBackoff < 0 || o.MaxBackoff < o.InitialBackoff {
		invalid("backoff", "need 0 < initial_backoff <= max_backoff, got %s and %s", o.InitialBackoff, o.MaxBackoff)
	}
	if o.AttemptTimeout < 0 {
		invalid("attempt_timeout", "must be positive, got %s", o.AttemptTimeout)
	}
	if o.ShutdownGrace < 0 {
		invalid("shutdown_grace", "must be positive, got %s", o.ShutdownGrace)
	}
	return errors.Join(errs...)
}

func (o Options) endpointConfig() putlogs.Config {
	return putlogs.Config{
		Endpoint:        o.Endpoint,
		Project:         o.Project,
		Logstore:        o.Logstore,
		AccessKeyID:     o.AccessKeyID,
		AccessKeySecret: o.AccessKeySecret,
		Scheme:          o.Scheme,
		Address:         o.Address,
	}
}
