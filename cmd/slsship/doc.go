// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Slsship ships log lines from standard input to an Aliyun SLS
// logstore.
//
// Each line becomes one entry. By default the line is the entry's
// "message" and --level sets its "level". With --json, a line holding
// a JSON object contributes one content per member in document order:
// strings as their value, everything else as compact JSON text. Lines
// that are not objects fall back to the plain form.
//
// Settings come from a config file (--config, or the SLSSHIP_CONFIG
// environment variable) with flags overriding individual fields.
// Credentials left empty are read from SLS_ACCESS_KEY_ID and
// SLS_ACCESS_KEY_SECRET.
//
//	tail -F /var/log/app.log | slsship --project playground \
//	    --endpoint cn-hangzhou.log.aliyuncs.com --logstore app --lz4
//
// Entries are batched and sent in the background. At end of input, or
// on SIGINT/SIGTERM, slsship drains what it has buffered (bounded by
// the shutdown grace) and exits.
package main
