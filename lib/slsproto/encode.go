// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package slsproto

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bureau-foundation/slsship/lib/inline"
	"github.com/bureau-foundation/slsship/lib/loggroup"
)

// Field numbers. These are protocol constants.
const (
	groupLogs   protowire.Number = 1
	groupTopic  protowire.Number = 3
	groupSource protowire.Number = 4
	groupTags   protowire.Number = 6

	logTime     protowire.Number = 1
	logContents protowire.Number = 2
	logTimeNs   protowire.Number = 4

	pairKey   protowire.Number = 1
	pairValue protowire.Number = 2
)

const nanosPerSecond = 1_000_000_000

// splitTime turns a nanosecond timestamp into whole seconds and the
// sub-second remainder, flooring so the remainder is never negative.
func splitTime(unixNano int64) (seconds int64, nanos uint32) {
	seconds = unixNano / nanosPerSecond
	remainder := unixNano % nanosPerSecond
	if remainder < 0 {
		seconds--
		remainder += nanosPerSecond
	}
	return seconds, uint32(remainder)
}

func joinTime(seconds int64, nanos uint32) int64 {
	return seconds*nanosPerSecond + int64(nanos)
}

// Encode returns the canonical encoding of group.
func Encode(group *loggroup.Group) []byte {
	return AppendGroup(make([]byte, 0, EncodedLen(group)), group)
}

// AppendGroup appends the canonical encoding of group to dst.
func AppendGroup(dst []byte, group *loggroup.Group) []byte {
	for i := range group.Entries {
		dst = protowire.AppendTag(dst, groupLogs, protowire.BytesType)
		dst = protowire.AppendVarint(dst, uint64(logSize(&group.Entries[i])))
		dst = appendLog(dst, &group.Entries[i])
	}
	dst = protowire.AppendTag(dst, groupTopic, protowire.BytesType)
	dst = protowire.AppendString(dst, group.Topic)
	dst = protowire.AppendTag(dst, groupSource, protowire.BytesType)
	dst = protowire.AppendString(dst, group.Source)
	return appendPairs(dst, groupTags, &group.Tags)
}

func appendLog(dst []byte, entry *loggroup.Entry) []byte {
	seconds, nanos := splitTime(entry.UnixNano())
	dst = protowire.AppendTag(dst, logTime, protowire.VarintType)
	dst = protowire.AppendVarint(dst, uint64(seconds))
	dst = appendPairs(dst, logContents, entry.Contents())
	dst = protowire.AppendTag(dst, logTimeNs, protowire.Fixed32Type)
	return protowire.AppendFixed32(dst, nanos)
}

func appendPairs(dst []byte, number protowire.Number, store *inline.Store) []byte {
	for _, pair := range store.Pairs() {
		dst = protowire.AppendTag(dst, number, protowire.BytesType)
		dst = protowire.AppendVarint(dst, uint64(pairSize(pair)))
		dst = protowire.AppendTag(dst, pairKey, protowire.BytesType)
		dst = protowire.AppendString(dst, pair.Key)
		dst = protowire.AppendTag(dst, pairValue, protowire.BytesType)
		dst = protowire.AppendString(dst, pair.Value)
	}
	return dst
}

// EncodedLen returns the exact length of Encode(group).
func EncodedLen(group *loggroup.Group) int {
	size := MetadataSize(&group.Metadata)
	for i := range group.Entries {
		size += EntrySize(&group.Entries[i])
	}
	return size
}

// EntrySize returns the number of bytes entry adds to an encoded group,
// including its field tag and length prefix.
func EntrySize(entry *loggroup.Entry) int {
	return protowire.SizeTag(groupLogs) + protowire.SizeBytes(logSize(entry))
}

// MetadataSize returns the number of bytes the topic, source, and tags
// contribute to an encoded group. It is the encoded size of a group with
// no entries.
func MetadataSize(metadata *loggroup.Metadata) int {
	return protowire.SizeTag(groupTopic) + protowire.SizeBytes(len(metadata.Topic)) +
		protowire.SizeTag(groupSource) + protowire.SizeBytes(len(metadata.Source)) +
		pairsSize(groupTags, &metadata.Tags)
}

func logSize(entry *loggroup.Entry) int {
	seconds, _ := splitTime(entry.UnixNano())
	return protowire.SizeTag(logTime) + protowire.SizeVarint(uint64(seconds)) +
		pairsSize(logContents, entry.Contents()) +
		protowire.SizeTag(logTimeNs) + protowire.SizeFixed32()
}

func pairsSize(number protowire.Number, store *inline.Store) int {
	size := 0
	for _, pair := range store.Pairs() {
		size += protowire.SizeTag(number) + protowire.SizeBytes(pairSize(pair))
	}
	return size
}

func pairSize(pair inline.Pair) int {
	return protowire.SizeTag(pairKey) + protowire.SizeBytes(len(pair.Key)) +
		protowire.SizeTag(pairValue) + protowire.SizeBytes(len(pair.Value))
}
