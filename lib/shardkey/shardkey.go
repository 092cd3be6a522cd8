// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shardkey

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Policy selects how a group's shard key is produced.
type Policy uint8

const (
	None Policy = iota
	Explicit
	Hash
)

// DigestSize is the number of digest bytes kept for [Hash] keys.
const DigestSize = 16

// String returns the policy name used in configuration.
func (p Policy) String() string {
	switch p {
	case None:
		return "none"
	case Explicit:
		return "explicit"
	case Hash:
		return "hash"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ParsePolicy parses a policy name. The empty string means [None].
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "explicit":
		return Explicit, nil
	case "hash", "hash-derived":
		return Hash, nil
	default:
		return 0, fmt.Errorf("unknown shard key policy %q (want none, explicit, or hash)", name)
	}
}

// ErrMissingValue is returned by [New] when an [Explicit] or [Hash]
// policy has nothing to work from.
var ErrMissingValue = errors.New("shard key policy requires a non-empty value")

// Resolver produces the shard key for every group of one client. The
// key is computed once at construction; Resolve is a field read.
type Resolver struct {
	policy Policy
	key    string
}

// New validates policy against value and returns a Resolver. For
// [Explicit] value is the key itself; for [Hash] it is the digest
// input; for [None] it must be empty.
func New(policy Policy, value string) (Resolver, error) {
	switch policy {
	case None:
		if value != "" {
			return Resolver{}, fmt.Errorf("shard key policy none does not take a value (got %q)", value)
		}
		return Resolver{policy: None}, nil
	case Explicit:
		if value == "" {
			return Resolver{}, fmt.Errorf("%w: explicit", ErrMissingValue)
		}
		return Resolver{policy: Explicit, key: value}, nil
	case Hash:
		if value == "" {
			return Resolver{}, fmt.Errorf("%w: hash", ErrMissingValue)
		}
		return Resolver{policy: Hash, key: Derive(value)}, nil
	default:
		return Resolver{}, fmt.Errorf("unsupported shard key policy %s", policy)
	}
}

// Policy returns the resolver's policy.
func (r Resolver) Policy() Policy {
	return r.policy
}

// Resolve returns the shard key and whether one applies. The zero
// Resolver behaves as [None].
func (r Resolver) Resolve() (string, bool) {
	if r.policy == None {
		return "", false
	}
	return r.key, true
}

// Derive returns the [Hash] policy key for input.
func Derive(input string) string {
	digest := blake3.Sum256([]byte(input))
	return hex.EncodeToString(digest[:DigestSize])
}
