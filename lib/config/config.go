// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/shardkey"
	"github.com/bureau-foundation/slsship/lib/sls"
)

// EnvVar names the environment variable Load reads.
const EnvVar = "SLSSHIP_CONFIG"

// Format selects the parser for Parse.
type Format int

const (
	YAML Format = iota
	JSONC
)

// FormatFor picks the format from a file name's extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return JSONC
	default:
		return YAML
	}
}

// Config mirrors the configuration file. Zero values mean "use the
// client default".
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Project         string `yaml:"project"`
	Logstore        string `yaml:"logstore"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`

	// Scheme and Address point the client at a mock endpoint.
	Scheme  string `yaml:"scheme"`
	Address string `yaml:"address"`

	Topic      string `yaml:"topic"`
	Source     string `yaml:"source"`
	InstanceID string `yaml:"instance_id"`
	Tags       Tags   `yaml:"tags"`

	ShardKey ShardKey `yaml:"shard_key"`

	// MinLevel is a slog level name: debug, info, warn, error, with
	// an optional offset such as "warn+2".
	MinLevel string `yaml:"min_level"`

	DrainInterval    time.Duration `yaml:"drain_interval"`
	ContentsCapacity int           `yaml:"contents_capacity"`
	TagsCapacity     int           `yaml:"tags_capacity"`

	Compression Compression `yaml:"compression"`

	SealEntries        int `yaml:"seal_entries"`
	SealBytes          int `yaml:"seal_bytes"`
	MaxBufferedEntries int `yaml:"max_buffered_entries"`
	MaxBufferedBytes   int `yaml:"max_buffered_bytes"`

	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

// ShardKey is the shard_key section.
type ShardKey struct {
	// Policy is none, explicit, or hash.
	Policy string `yaml:"policy"`
	Value  string `yaml:"value"`
}

// Compression is the compression section. At most one codec may be
// enabled.
type Compression struct {
	LZ4     bool `yaml:"lz4"`
	Deflate bool `yaml:"deflate"`
	Zstd    bool `yaml:"zstd"`
	Level   int  `yaml:"level"`
}

// Tags is an ordered tag mapping.
type Tags []loggroup.Tag

// UnmarshalYAML reads a mapping in document order. A plain map would
// lose the order tags appear on the wire.
func (t *Tags) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tags must be a mapping", node.Line)
	}
	tags := make(Tags, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: tag %q must map a string to a string", key.Line, key.Value)
		}
		tags = append(tags, loggroup.Tag{Key: key.Value, Value: value.Value})
	}
	*t = tags
	return nil
}

// Load reads the file named by SLSSHIP_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s is not set; set it to the path of a config file, or pass --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile reads and parses the file at path, choosing the format by
// extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Parse decodes data and expands environment references. Unknown keys
// are errors.
func Parse(data []byte, format Format) (*Config, error) {
	if format == JSONC {
		// JSON is YAML, so one decoder serves both.
		data = jsonc.ToJSON(data)
	}
	config := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	config.expandVariables()
	return config, nil
}

func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Endpoint, &c.Project, &c.Logstore,
		&c.AccessKeyID, &c.AccessKeySecret,
		&c.Scheme, &c.Address,
		&c.Topic, &c.Source, &c.InstanceID,
		&c.ShardKey.Value,
	} {
		*field = expandVars(*field)
	}
	for i := range c.Tags {
		c.Tags[i].Value = expandVars(c.Tags[i].Value)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} with the variable's value and
// ${VAR:-default} with the value, or default when VAR is unset or
// empty.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Options converts the file settings to client options. Level and
// policy names are checked here; everything else is left to
// sls.Options.Validate, whose errors are joined with these.
func (c *Config) Options() (sls.Options, error) {
	var errs []error

	var level slog.Level
	if c.MinLevel != "" {
		if err := level.UnmarshalText([]byte(c.MinLevel)); err != nil {
			errs = append(errs, &sls.ConfigError{Field: "min_level", Reason: err.Error()})
		}
	}
	policy, err := shardkey.ParsePolicy(c.ShardKey.Policy)
	if err != nil {
		errs = append(errs, &sls.ConfigError{Field: "shard_key.policy", Reason: err.Error()})
	}

	options := sls.Options{
		Endpoint:        c.Endpoint,
		Project:         c.Project,
		Logstore:        c.Logstore,
		AccessKeyID:     c.AccessKeyID,
		AccessKeySecret: c.AccessKeySecret,
		Scheme:          c.Scheme,
		Address:         c.Address,

		Topic:      c.Topic,
		Source:     c.Source,
		InstanceID: c.InstanceID,
		Tags:       []loggroup.Tag(c.Tags),

		ShardKeyPolicy: policy,
		ShardKey:       c.ShardKey.Value,

		MinLevel:         level,
		DrainInterval:    c.DrainInterval,
		ContentsCapacity: c.ContentsCapacity,
		TagsCapacity:     c.TagsCapacity,
		Compression: compress.Switches{
			LZ4:     c.Compression.LZ4,
			Deflate: c.Compression.Deflate,
			Zstd:    c.Compression.Zstd,
		},
		CompressionLevel: c.Compression.Level,

		SealEntries:        c.SealEntries,
		SealBytes:          c.SealBytes,
		MaxBufferedEntries: c.MaxBufferedEntries,
		MaxBufferedBytes:   c.MaxBufferedBytes,

		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		AttemptTimeout: c.AttemptTimeout,
		ShutdownGrace:  c.ShutdownGrace,
	}
	if len(errs) == 0 {
		if err := options.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return options, errors.Join(errs...)
}
