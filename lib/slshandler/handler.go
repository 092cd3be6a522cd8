// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package slshandler

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/bureau-foundation/slsship/lib/loggroup"
)

// Appender is the part of *sls.Client the handler uses.
type Appender interface {
	Enabled(level slog.Level) bool
	NewEntry(t time.Time) loggroup.Entry
	NewMetadata() *loggroup.Metadata
	AppendTo(metadata *loggroup.Metadata, entry loggroup.Entry) bool
}

// Options adjusts how records are rendered.
type Options struct {
	// AddSource records the caller's file and line.
	AddSource bool

	// Level, when set, overrides the client's minimum level.
	Level slog.Leveler

	// GroupTags turns WithAttrs pairs into group tags instead of
	// per-entry contents. Each derived handler then ships under its own
	// group metadata, so records from one request or component are
	// batched together.
	GroupTags bool
}

// Handler implements slog.Handler on top of an Appender. Derived
// handlers share the Appender.
type Handler struct {
	appender Appender
	options  Options

	// attrs are WithAttrs pairs, already flattened to dotted keys.
	attrs []loggroup.Content

	// metadata is the group metadata handle built from WithAttrs pairs
	// under GroupTags, or nil for the appender's own.
	metadata *loggroup.Metadata

	// prefix is the dotted group path for record attributes, ending
	// in "." when non-empty.
	prefix string
}

// New returns a Handler that appends to appender. A nil options is the
// same as the zero Options.
func New(appender Appender, options *Options) *Handler {
	handler := &Handler{appender: appender}
	if options != nil {
		handler.options = *options
	}
	return handler
}

// Enabled reports whether records at level are shipped.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	if h.options.Level != nil {
		return level >= h.options.Level.Level()
	}
	return h.appender.Enabled(level)
}

// Handle converts record to an entry and appends it. It never returns
// an error: a refused entry is counted by the client.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	entry := h.appender.NewEntry(timestamp)
	entry.Add("level", record.Level.String())
	entry.Add("message", record.Message)
	if h.options.AddSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		if frame.File != "" {
			entry.Add("file", frame.File)
			entry.Add("line", strconv.Itoa(frame.Line))
		}
	}
	for _, attr := range h.attrs {
		entry.Add(attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&entry, h.prefix, attr)
		return true
	})
	h.appender.AppendTo(h.metadata, entry)
	return nil
}

// WithAttrs returns a handler whose entries carry attrs ahead of each
// record's own attributes, or, under GroupTags, whose groups carry them
// as tags.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	scratch := loggroup.NewEntryAt(0, 0)
	for _, attr := range attrs {
		appendAttr(&scratch, h.prefix, attr)
	}
	derived := *h
	if h.options.GroupTags {
		if h.metadata != nil {
			derived.metadata = h.metadata.Clone()
		} else {
			derived.metadata = h.appender.NewMetadata()
		}
		for key, value := range scratch.Contents().All() {
			derived.metadata.AddTag(key, value)
		}
		return &derived
	}
	derived.attrs = append(append([]loggroup.Content(nil), h.attrs...), scratch.Contents().Pairs()...)
	return &derived
}

// WithGroup returns a handler that nests later attributes under name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	derived := *h
	derived.prefix = h.prefix + name + "."
	return &derived
}

// appendAttr flattens attr into entry. Empty attributes are skipped,
// groups recurse with a dotted prefix, and a group with an empty key
// inlines its members.
func appendAttr(entry *loggroup.Entry, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		if len(members) == 0 {
			return
		}
		nested := prefix
		if attr.Key != "" {
			nested = prefix + attr.Key + "."
		}
		for _, member := range members {
			appendAttr(entry, nested, member)
		}
		return
	}
	entry.Add(prefix+attr.Key, formatValue(attr.Value))
}

func formatValue(value slog.Value) string {
	switch value.Kind() {
	case slog.KindString:
		return value.String()
	case slog.KindTime:
		return value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.String()
	default:
		return value.String()
	}
}
