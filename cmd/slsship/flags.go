// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/slsship/lib/config"
	"github.com/bureau-foundation/slsship/lib/loggroup"
	"github.com/bureau-foundation/slsship/lib/sls"
)

// Credential environment variables consulted when the config file and
// flags leave the key pair empty.
const (
	accessKeyIDEnv     = "SLS_ACCESS_KEY_ID"
	accessKeySecretEnv = "SLS_ACCESS_KEY_SECRET"
)

// commandLine holds parsed flags. Settings flags only override the
// config file when given explicitly.
type commandLine struct {
	configPath string

	endpoint       string
	project        string
	logstore       string
	scheme         string
	address        string
	topic          string
	source         string
	instanceID     string
	tags           []string
	shardKeyPolicy string
	shardKey       string
	minLevel       string
	drainInterval  time.Duration
	lz4            bool
	deflate        bool
	zstd           bool

	jsonInput    bool
	level        string
	maxLineBytes int
	showVersion  bool
}

func (c *commandLine) register(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&c.configPath, "config", "c", "", "config file (YAML, or JSON with comments); default $"+config.EnvVar)

	flagSet.StringVar(&c.endpoint, "endpoint", "", "regional endpoint host, e.g. cn-hangzhou.log.aliyuncs.com")
	flagSet.StringVar(&c.project, "project", "", "SLS project")
	flagSet.StringVar(&c.logstore, "logstore", "", "SLS logstore")
	flagSet.StringVar(&c.scheme, "scheme", "", "http or https (default https)")
	flagSet.StringVar(&c.address, "address", "", "host:port to send to instead of the endpoint, e.g. a local sls-mock")
	flagSet.StringVar(&c.topic, "topic", "", "topic stamped on every group")
	flagSet.StringVar(&c.source, "source", "", "source stamped on every group (default host name)")
	flagSet.StringVar(&c.instanceID, "instance-id", "", "instance_id tag stamped on every group")
	flagSet.StringArrayVar(&c.tags, "tag", nil, "group tag as key=value; repeatable, appended after config file tags")
	flagSet.StringVar(&c.shardKeyPolicy, "shard-key-policy", "", "none, explicit, or hash")
	flagSet.StringVar(&c.shardKey, "shard-key", "", "shard key (explicit) or hash input (hash)")
	flagSet.StringVar(&c.minLevel, "min-level", "", "drop entries below this slog level")
	flagSet.DurationVar(&c.drainInterval, "drain-interval", 0, "longest time an entry waits before its group is sent")
	flagSet.BoolVar(&c.lz4, "lz4", false, "compress bodies with lz4")
	flagSet.BoolVar(&c.deflate, "deflate", false, "compress bodies with deflate")
	flagSet.BoolVar(&c.zstd, "zstd", false, "compress bodies with zstd")

	flagSet.BoolVar(&c.jsonInput, "json", false, "treat each line as a JSON object whose members become contents")
	flagSet.StringVar(&c.level, "level", "INFO", "level recorded on plain lines")
	flagSet.IntVar(&c.maxLineBytes, "max-line-bytes", 1<<20, "longest accepted input line")
	flagSet.BoolVar(&c.showVersion, "version", false, "print version information and exit")
}

// options merges the config file, explicit flags, and credential
// environment variables, in increasing precedence for the first two.
func (c *commandLine) options(flagSet *pflag.FlagSet) (sls.Options, error) {
	settings, err := c.loadConfig()
	if err != nil {
		return sls.Options{}, err
	}

	override := func(name string, target *string, value string) {
		if flagSet.Changed(name) {
			*target = value
		}
	}
	override("endpoint", &settings.Endpoint, c.endpoint)
	override("project", &settings.Project, c.project)
	override("logstore", &settings.Logstore, c.logstore)
	override("scheme", &settings.Scheme, c.scheme)
	override("address", &settings.Address, c.address)
	override("topic", &settings.Topic, c.topic)
	override("source", &settings.Source, c.source)
	override("instance-id", &settings.InstanceID, c.instanceID)
	override("shard-key-policy", &settings.ShardKey.Policy, c.shardKeyPolicy)
	override("shard-key", &settings.ShardKey.Value, c.shardKey)
	override("min-level", &settings.MinLevel, c.minLevel)
	if flagSet.Changed("drain-interval") {
		settings.DrainInterval = c.drainInterval
	}
	if c.lz4 || c.deflate || c.zstd {
		settings.Compression.LZ4 = c.lz4
		settings.Compression.Deflate = c.deflate
		settings.Compression.Zstd = c.zstd
	}
	for _, tag := range c.tags {
		key, value, found := strings.Cut(tag, "=")
		if !found || key == "" {
			return sls.Options{}, fmt.Errorf("--tag %q: want key=value", tag)
		}
		settings.Tags = append(settings.Tags, loggroup.Tag{Key: key, Value: value})
	}

	if settings.AccessKeyID == "" {
		settings.AccessKeyID = os.Getenv(accessKeyIDEnv)
	}
	if settings.AccessKeySecret == "" {
		settings.AccessKeySecret = os.Getenv(accessKeySecretEnv)
	}

	return settings.Options()
}

func (c *commandLine) loadConfig() (*config.Config, error) {
	switch {
	case c.configPath != "":
		return config.LoadFile(c.configPath)
	case os.Getenv(config.EnvVar) != "":
		return config.Load()
	default:
		return &config.Config{}, nil
	}
}
