// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/slsship/lib/loggroup"
)

// entrySink is the part of *sls.Client the reader feeds.
type entrySink interface {
	NewEntry(t time.Time) loggroup.Entry
	Append(entry loggroup.Entry) bool
}

// lineReader turns input lines into entries.
type lineReader struct {
	client  entrySink
	json    bool
	level   string
	maxLine int

	// now stamps entries; nil means time.Now.
	now func() time.Time
}

// ship reads r to the end, appending one entry per non-empty line. It
// returns the number of lines read and stops early with ctx's error.
// Reading happens on its own goroutine so a blocked read does not
// delay shutdown; that goroutine ends with the process.
func (l *lineReader) ship(ctx context.Context, r io.Reader) (int, error) {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), max(l.maxLine, 64*1024))
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return count, fmt.Errorf("reading input after %d lines: %w", count, err)
				}
				return count, nil
			}
			count++
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			l.client.Append(l.entry(line))
		}
	}
}

func (l *lineReader) entry(line []byte) loggroup.Entry {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	entry := l.client.NewEntry(now())
	if l.json {
		if err := appendObject(&entry, line); err == nil {
			return entry
		}
		entry = l.client.NewEntry(now())
	}
	entry.Add("level", l.level)
	entry.Add("message", string(bytes.TrimRight(line, "\r")))
	return entry
}

var errNotObject = errors.New("line is not a JSON object")

// appendObject adds one content per member of the JSON object in line,
// in document order. Strings contribute their value; other values
// their compact JSON text.
func appendObject(entry *loggroup.Entry, line []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()
	if token, err := decoder.Token(); err != nil || token != json.Delim('{') {
		return errNotObject
	}
	type member struct{ key, value string }
	var members []member
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, _ := token.(string)
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return err
		}
		value, err := renderValue(raw)
		if err != nil {
			return err
		}
		members = append(members, member{key, value})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errNotObject
	}
	for _, m := range members {
		entry.Add(m.key, m.value)
	}
	return nil
}

func renderValue(raw json.RawMessage) (string, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		err := json.Unmarshal(raw, &text)
		return text, err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", err
	}
	return compact.String(), nil
}
