// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package putlogs builds signed PutLogs requests for the log ingestion
// service and verifies them on the receiving side.
//
// A request targets https://{project}.{endpoint}{resource}, where the
// resource is /logstores/{logstore}/shards/lb when the service picks the
// shard, or /logstores/{logstore}/shards/route?key={key} when a shard
// key routes the group.
//
// The Authorization header is "LOG {access key id}:{signature}", the
// signature being base64(HMAC-SHA1(secret, sign string)) with
//
//	POST\n
//	{Content-MD5}\n
//	{Content-Type}\n
//	{Date}\n
//	{x-log-* headers, lowercased, sorted, "name:value\n" each}
//	{canonical resource}
//
// Content-MD5 is the uppercase hex MD5 of the (compressed) body and
// x-log-bodyrawsize the length of the body before compression.
package putlogs
