// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inline provides a small ordered key/value container that keeps
// its first K pairs in a fixed array embedded in the value itself and
// spills to a heap slice only when a (K+1)th pair arrives.
//
// Log entries and group tags almost always carry a handful of pairs
// (level, message, file, line, a few fields). Keeping those inline means
// building an entry on a logging hot path costs no allocation beyond the
// strings the caller already owns.
//
// K is chosen at construction from {2, 4, 8, 16} ([ValidCapacity]). Go
// cannot size an array from a runtime value, so every Store reserves
// room for [MaxCapacity] pairs and K only decides when the spill
// happens. The trade-off: a Store is always MaxCapacity pairs wide on
// the stack or inside its parent struct, even when K is 2. A smaller K
// lowers the spill point, not the footprint.
//
// Order is insertion order, always. Duplicate keys are kept. There is no
// lookup or overwrite by key; the wire format is a list, not a map.
package inline
