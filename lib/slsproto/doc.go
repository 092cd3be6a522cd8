// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package slsproto encodes [loggroup.Group] values into the protobuf
// LogGroup message accepted by the PutLogs API, and decodes them back.
//
// The schema, by field number:
//
//	LogGroup { repeated Log Logs = 1; string Topic = 3; string Source = 4; repeated LogTag LogTags = 6; }
//	Log      { uint32 Time = 1; repeated Content Contents = 2; fixed32 TimeNs = 4; }
//	Content  { string Key = 1; string Value = 2; }
//	LogTag   { string Key = 1; string Value = 2; }
//
// Encoding is hand-rolled on protowire rather than generated code so
// that entries can be sized one at a time as they are appended (the
// accumulator's byte threshold uses [EntrySize]) and so that the output
// is canonical: fields in ascending number order, repeated fields in
// slice order, every scalar written even when empty. Equal groups always
// encode to equal bytes.
//
// The shard key is not part of the body. It travels in the request
// target; see package putlogs.
package slsproto
