// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loggroup

import "github.com/bureau-foundation/slsship/lib/inline"

// Tag is a group-level key/value pair.
type Tag = inline.Pair

// Metadata carries the fields every entry of a group shares. Entries
// appended under the same *Metadata are batched into the same group, so
// a producer keeps one handle per distinct metadata set and never
// modifies it after its first use.
type Metadata struct {
	Topic  string
	Source string
	Tags   inline.Store
}

// NewMetadata returns Metadata with an empty tag store of the given
// inline capacity.
func NewMetadata(topic, source string, tagsCapacity int) Metadata {
	return Metadata{Topic: topic, Source: source, Tags: inline.New(tagsCapacity)}
}

// Clone returns a deep copy whose tag store can be extended without
// touching m.
func (m *Metadata) Clone() *Metadata {
	clone := NewMetadata(m.Topic, m.Source, m.Tags.Capacity())
	for key, value := range m.Tags.All() {
		clone.Tags.Append(key, value)
	}
	return &clone
}

// AddTag appends a tag.
func (m *Metadata) AddTag(key, value string) {
	m.Tags.Append(key, value)
}

// Group is one batch: shared metadata plus entries in append order.
// ShardKey is stamped by the client just before delivery and is empty
// when the server chooses the shard; it is conveyed in the request
// target, never in the encoded body.
//
// A Group is mutable only while its accumulator owns it. After the
// accumulator seals it, it is read-only for the rest of its life.
type Group struct {
	Metadata
	Entries  []Entry
	ShardKey string
}

// Len returns the number of entries.
func (g *Group) Len() int {
	return len(g.Entries)
}

// Equal reports whether two groups have the same metadata, shard key,
// and entries in the same order.
func (g *Group) Equal(other *Group) bool {
	if g.Topic != other.Topic || g.Source != other.Source || g.ShardKey != other.ShardKey {
		return false
	}
	if !g.Tags.Equal(&other.Tags) {
		return false
	}
	if len(g.Entries) != len(other.Entries) {
		return false
	}
	for i := range g.Entries {
		if !g.Entries[i].Equal(&other.Entries[i]) {
			return false
		}
	}
	return true
}
