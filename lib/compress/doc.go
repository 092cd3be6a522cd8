// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the body codecs a PutLogs request may
// carry: identity, lz4 (raw block), deflate (zlib-framed), and zstd.
//
// A client picks exactly one codec at construction. [Select] turns the
// per-codec switches of a configuration into that single choice and
// rejects combinations that enable more than one, so a conflicting
// configuration fails before any entry is accepted rather than at the
// first flush.
//
// The codec's [Codec.Header] value goes in the x-log-compresstype
// header; the receiver needs it, together with the raw size, to
// decompress.
package compress
