// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Sls-mock is a local stand-in for the SLS PutLogs endpoint. It
// checks each request the way the service does (path, API headers,
// Content-MD5, HMAC-SHA1 signature), decompresses and decodes the
// LogGroup, and writes one capture per accepted request to stdout.
//
// Point a client at it with Scheme "http" and Address set to the
// listen address; the Host header and signature still name the real
// project and endpoint:
//
//	sls-mock --listen 127.0.0.1:8480 --access-key ak=sk &
//	echo hello | slsship --scheme http --address 127.0.0.1:8480 \
//	    --endpoint cn-hangzhou.log.aliyuncs.com --project p --logstore app
//
// Captures are JSON lines (indented when stdout is a terminal) or,
// with --format cbor, a CBOR sequence. --decode prints a recorded CBOR
// sequence in diagnostic notation and exits.
//
// Responses follow the service: 200 on success, 400 for malformed
// requests, 401 for signature failures, each error with a JSON body
// carrying errorCode and errorMessage. --fail-first N answers the
// first N valid requests with 503 so client retries can be watched.
package main
