// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package slsproto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bureau-foundation/slsship/lib/inline"
	"github.com/bureau-foundation/slsship/lib/loggroup"
)

// ErrMalformed is wrapped by every decoding error.
var ErrMalformed = errors.New("slsproto: malformed LogGroup")

// DecodeOptions sets the inline capacities of decoded stores. Zero
// values select inline.DefaultCapacity.
type DecodeOptions struct {
	ContentsCapacity int
	TagsCapacity     int
}

// Decode parses an encoded LogGroup. Unknown fields are skipped. The
// returned group has no shard key.
func Decode(data []byte, options DecodeOptions) (*loggroup.Group, error) {
	group := &loggroup.Group{
		Metadata: loggroup.NewMetadata("", "", options.TagsCapacity),
	}
	for len(data) > 0 {
		number, wireType, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, malformed("group tag", n)
		}
		data = data[n:]

		switch {
		case number == groupLogs && wireType == protowire.BytesType:
			payload, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, malformed("log", n)
			}
			entry, err := decodeLog(payload, options.ContentsCapacity)
			if err != nil {
				return nil, err
			}
			group.Entries = append(group.Entries, entry)
			data = data[n:]
		case number == groupTopic && wireType == protowire.BytesType:
			value, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, malformed("topic", n)
			}
			group.Topic = value
			data = data[n:]
		case number == groupSource && wireType == protowire.BytesType:
			value, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, malformed("source", n)
			}
			group.Source = value
			data = data[n:]
		case number == groupTags && wireType == protowire.BytesType:
			payload, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, malformed("tag", n)
			}
			key, value, err := decodePair(payload)
			if err != nil {
				return nil, err
			}
			group.Tags.Append(key, value)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(number, wireType, data)
			if n < 0 {
				return nil, malformed(fmt.Sprintf("unknown field %d", number), n)
			}
			data = data[n:]
		}
	}
	return group, nil
}

func decodeLog(data []byte, contentsCapacity int) (loggroup.Entry, error) {
	var seconds int64
	var nanos uint32
	contents := make([]inline.Pair, 0, 8)
	for len(data) > 0 {
		number, wireType, n := protowire.ConsumeTag(data)
		if n < 0 {
			return loggroup.Entry{}, malformed("log tag", n)
		}
		data = data[n:]

		switch {
		case number == logTime && wireType == protowire.VarintType:
			value, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return loggroup.Entry{}, malformed("log time", n)
			}
			seconds = int64(value)
			data = data[n:]
		case number == logContents && wireType == protowire.BytesType:
			payload, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return loggroup.Entry{}, malformed("content", n)
			}
			key, value, err := decodePair(payload)
			if err != nil {
				return loggroup.Entry{}, err
			}
			contents = append(contents, inline.Pair{Key: key, Value: value})
			data = data[n:]
		case number == logTimeNs && wireType == protowire.Fixed32Type:
			value, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return loggroup.Entry{}, malformed("log time_ns", n)
			}
			nanos = value
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(number, wireType, data)
			if n < 0 {
				return loggroup.Entry{}, malformed(fmt.Sprintf("unknown log field %d", number), n)
			}
			data = data[n:]
		}
	}
	if nanos >= nanosPerSecond {
		return loggroup.Entry{}, fmt.Errorf("%w: time_ns %d out of range", ErrMalformed, nanos)
	}

	entry := loggroup.NewEntryAt(joinTime(seconds, nanos), contentsCapacity)
	for _, pair := range contents {
		entry.Add(pair.Key, pair.Value)
	}
	return entry, nil
}

func decodePair(data []byte) (key, value string, err error) {
	for len(data) > 0 {
		number, wireType, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", "", malformed("pair tag", n)
		}
		data = data[n:]

		switch {
		case number == pairKey && wireType == protowire.BytesType:
			key, n = protowire.ConsumeString(data)
		case number == pairValue && wireType == protowire.BytesType:
			value, n = protowire.ConsumeString(data)
		default:
			n = protowire.ConsumeFieldValue(number, wireType, data)
		}
		if n < 0 {
			return "", "", malformed("pair field", n)
		}
		data = data[n:]
	}
	return key, value, nil
}

func malformed(what string, n int) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, protowire.ParseError(n))
}
