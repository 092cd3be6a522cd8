// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/bureau-foundation/slsship/lib/clock"
	"github.com/bureau-foundation/slsship/lib/codec"
	"github.com/bureau-foundation/slsship/lib/compress"
	"github.com/bureau-foundation/slsship/lib/inline"
	"github.com/bureau-foundation/slsship/lib/netutil"
	"github.com/bureau-foundation/slsship/lib/putlogs"
	"github.com/bureau-foundation/slsship/lib/slsproto"
	"github.com/bureau-foundation/slsship/lib/transport"
)

// maxBodyBytes bounds a request body. The service accepts up to 10 MiB
// per PutLogs call, compressed or not.
const maxBodyBytes = compress.MaxRawSize

// Error codes written in response bodies.
const (
	codeUnauthorized  = "Unauthorized"
	codeBadRequest    = "PostBodyInvalid"
	codeTooLarge      = "PostBodyTooLarge"
	codeInjected      = "ServerBusy"
	codeCaptureFailed = "InternalServerError"
)

// captureSink receives accepted requests.
type captureSink interface {
	Write(capture *codec.Capture) error
}

// mockServer is the PutLogs handler.
type mockServer struct {
	secrets putlogs.SecretLookup
	sink    captureSink
	clock   clock.Clock
	logger  *slog.Logger

	// failRemaining valid requests are answered with 503.
	failRemaining atomic.Int64

	requests atomic.Uint64
	accepted atomic.Uint64
}

func (s *mockServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	requestID := strconv.FormatUint(s.requests.Add(1), 10)
	writer.Header().Set(transport.RequestIDHeader, requestID)
	logger := s.logger.With("request_id", requestID, "path", request.URL.Path)

	body, err := netutil.ReadLimited(request.Body, maxBodyBytes)
	if err != nil {
		if errors.Is(err, netutil.ErrTooLarge) {
			s.fail(writer, logger, http.StatusRequestEntityTooLarge, codeTooLarge, err)
			return
		}
		s.fail(writer, logger, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	verified, err := putlogs.Verify(request, body, s.secrets)
	switch {
	case errors.Is(err, putlogs.ErrUnauthorized):
		s.fail(writer, logger, http.StatusUnauthorized, codeUnauthorized, err)
		return
	case err != nil:
		s.fail(writer, logger, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	raw, err := compress.Decompress(verified.Codec, body, verified.RawSize)
	if err != nil {
		s.fail(writer, logger, http.StatusBadRequest, codeBadRequest, fmt.Errorf("%s body: %w", verified.Codec, err))
		return
	}
	group, err := slsproto.Decode(raw, slsproto.DecodeOptions{
		ContentsCapacity: inline.MaxCapacity,
		TagsCapacity:     inline.MaxCapacity,
	})
	if err != nil {
		s.fail(writer, logger, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	if s.failRemaining.Add(-1) >= 0 {
		s.fail(writer, logger, http.StatusServiceUnavailable, codeInjected, errors.New("injected failure"))
		return
	}

	capture := &codec.Capture{
		ReceivedAt:  s.clock.Now().UTC(),
		AccessKeyID: verified.AccessKeyID,
		Logstore:    verified.Logstore,
		ShardKey:    verified.ShardKey,
		Compression: verified.Codec.String(),
		RawSize:     verified.RawSize,
		BodySize:    len(body),
	}
	capture.FillGroup(group)
	if err := s.sink.Write(capture); err != nil {
		s.fail(writer, logger, http.StatusInternalServerError, codeCaptureFailed, fmt.Errorf("writing capture: %w", err))
		return
	}

	s.accepted.Add(1)
	logger.Debug("group accepted",
		"logstore", verified.Logstore,
		"entries", len(group.Entries),
		"compression", verified.Codec.String(),
	)
	writer.WriteHeader(http.StatusOK)
}

// fail writes the service's JSON error body.
func (s *mockServer) fail(writer http.ResponseWriter, logger *slog.Logger, status int, code string, err error) {
	logger.Warn("request rejected", "status", status, "code", code, "error", err)
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(map[string]string{
		"errorCode":    code,
		"errorMessage": err.Error(),
	})
}
