// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"time"

	"github.com/bureau-foundation/slsship/lib/loggroup"
)

// Capture is one accepted PutLogs request as the mock endpoint saw it.
type Capture struct {
	ReceivedAt  time.Time `json:"received_at"`
	AccessKeyID string    `json:"access_key_id"`
	Logstore    string    `json:"logstore"`
	ShardKey    string    `json:"shard_key,omitempty"`
	Compression string    `json:"compression"`
	RawSize     int       `json:"raw_size"`
	BodySize    int       `json:"body_size"`

	Topic  string        `json:"topic,omitempty"`
	Source string        `json:"source,omitempty"`
	Tags   []Pair        `json:"tags,omitempty"`
	Logs   []CapturedLog `json:"logs"`
}

// Pair is a content or tag pair. Order within a capture is the wire
// order, so pairs are a list rather than a map.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CapturedLog is one entry of a captured group.
type CapturedLog struct {
	TimeNanos int64  `json:"time_ns"`
	Contents  []Pair `json:"contents"`
}

// FillGroup copies group's metadata and entries into c.
func (c *Capture) FillGroup(group *loggroup.Group) {
	c.Topic = group.Topic
	c.Source = group.Source
	c.Tags = pairs(group.Tags.Pairs())
	c.Logs = make([]CapturedLog, len(group.Entries))
	for i := range group.Entries {
		entry := &group.Entries[i]
		c.Logs[i] = CapturedLog{
			TimeNanos: entry.UnixNano(),
			Contents:  pairs(entry.Contents().Pairs()),
		}
	}
}

func pairs(source []loggroup.Content) []Pair {
	if len(source) == 0 {
		return nil
	}
	converted := make([]Pair, len(source))
	for i, pair := range source {
		converted[i] = Pair{Key: pair.Key, Value: pair.Value}
	}
	return converted
}
