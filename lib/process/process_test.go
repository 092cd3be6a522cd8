// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWriteFatal(t *testing.T) {
	var buffer bytes.Buffer
	writeFatal(&buffer, errors.New("config: endpoint is required"))
	if got, want := buffer.String(), "error: config: endpoint is required\n"; got != want {
		t.Errorf("writeFatal wrote %q, want %q", got, want)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var piped bytes.Buffer
	newLogger(&piped, false, slog.LevelInfo).Info("shipped", "groups", 3)
	var record map[string]any
	if err := json.Unmarshal(piped.Bytes(), &record); err != nil {
		t.Fatalf("non-terminal output is not JSON: %v: %s", err, piped.String())
	}
	if record["msg"] != "shipped" || record["groups"] != float64(3) {
		t.Errorf("JSON record = %v", record)
	}

	var terminal bytes.Buffer
	newLogger(&terminal, true, slog.LevelInfo).Info("shipped", "groups", 3)
	if !strings.Contains(terminal.String(), "msg=shipped groups=3") {
		t.Errorf("terminal output = %q, want text key=value form", terminal.String())
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger := newLogger(&buffer, false, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buffer.String(), "hidden") || !strings.Contains(buffer.String(), "shown") {
		t.Errorf("level filter output = %q", buffer.String())
	}
}
