// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loggroup defines the value types that travel from a producer
// call site to the ingestion endpoint: [Entry] (one timestamped record
// with ordered contents), [Metadata] (topic, source, and tags shared by
// every entry in a group), and [Group] (one sealed batch).
//
// Contents and tags are [inline.Store] values, so an entry with up to K
// pairs is built without touching the heap.
package loggroup
