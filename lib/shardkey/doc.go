// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shardkey resolves the routing key attached to each log group.
//
// Three policies exist, fixed when a [Resolver] is built:
//
//   - [None]: no key; the ingestion endpoint load-balances the group.
//   - [Explicit]: a configured string, sent verbatim.
//   - [Hash]: a 128-bit digest of a configured string, rendered as 32
//     lowercase hex characters. The digest is the first 16 bytes of the
//     BLAKE3 hash, so the same input always routes to the same shard.
//
// The key never appears inside the encoded group body; the request
// builder carries it in the request path.
package shardkey
