// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inline

import (
	"fmt"
	"iter"
)

// MaxCapacity is the largest inline capacity a Store supports and the
// width of its embedded array.
const MaxCapacity = 16

// DefaultCapacity is the inline capacity used when zero is configured.
const DefaultCapacity = 8

// Pair is a single key/value pair.
type Pair struct {
	Key   string
	Value string
}

// ValidCapacity reports whether k is an accepted inline capacity.
func ValidCapacity(k int) bool {
	switch k {
	case 2, 4, 8, 16:
		return true
	default:
		return false
	}
}

// Store is an ordered list of pairs with inline storage for the first
// Capacity pairs. The zero value is an empty Store with
// DefaultCapacity.
//
// A Store is in one of two representations. Inline: pairs live in
// inline[:count] and spill is nil. Spilled: every pair lives in spill
// and inline is no longer read. The move from inline to spilled happens
// exactly once, on the append that would exceed the capacity.
//
// Store is not safe for concurrent mutation. Copying a Store copies the
// inline array; a spilled Store's copies share the backing slice, so
// treat a Store as frozen once it has been handed to another owner.
type Store struct {
	inline   [MaxCapacity]Pair
	count    uint8
	capacity uint8
	spill    []Pair
}

// New returns an empty Store that keeps up to capacity pairs inline.
// Zero selects DefaultCapacity. Any other value outside {2, 4, 8, 16}
// panics: capacities are validated at configuration time, so reaching
// here with a bad one is a programming error.
func New(capacity int) Store {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if !ValidCapacity(capacity) {
		panic(fmt.Sprintf("inline: capacity must be one of 2, 4, 8, 16; got %d", capacity))
	}
	return Store{capacity: uint8(capacity)}
}

// Capacity returns the inline capacity K.
func (s *Store) Capacity() int {
	if s.capacity == 0 {
		return DefaultCapacity
	}
	return int(s.capacity)
}

// Append adds a pair after all existing pairs.
func (s *Store) Append(key, value string) {
	if s.spill != nil {
		s.spill = append(s.spill, Pair{Key: key, Value: value})
		return
	}
	if int(s.count) < s.Capacity() {
		s.inline[s.count] = Pair{Key: key, Value: value}
		s.count++
		return
	}
	s.spillOver(Pair{Key: key, Value: value})
}

// spillOver moves every inline pair to a heap slice, then appends next.
// Called once per Store, on the (K+1)th append.
func (s *Store) spillOver(next Pair) {
	k := int(s.count)
	spill := make([]Pair, k, 2*k+1)
	copy(spill, s.inline[:k])
	spill = append(spill, next)
	s.spill = spill
	// Drop references held by the now-unused inline array.
	clear(s.inline[:k])
	s.count = 0
}

// Len returns the number of pairs.
func (s *Store) Len() int {
	if s.spill != nil {
		return len(s.spill)
	}
	return int(s.count)
}

// Spilled reports whether the Store has moved to heap storage.
func (s *Store) Spilled() bool {
	return s.spill != nil
}

// At returns the i-th pair in insertion order. Panics if i is out of
// range, like a slice index.
func (s *Store) At(i int) Pair {
	if s.spill != nil {
		return s.spill[i]
	}
	if i < 0 || i >= int(s.count) {
		panic(fmt.Sprintf("inline: index %d out of range [0:%d]", i, s.count))
	}
	return s.inline[i]
}

// All returns an iterator over the pairs in insertion order. The
// iterator is lazy and may be ranged over any number of times.
func (s *Store) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range s.view() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Pairs returns the pairs as a slice. The slice aliases the Store's
// storage and must not be modified.
func (s *Store) Pairs() []Pair {
	return s.view()
}

func (s *Store) view() []Pair {
	if s.spill != nil {
		return s.spill
	}
	return s.inline[:s.count]
}

// Equal reports whether two Stores hold the same pairs in the same
// order. Capacity and representation are not compared.
func (s *Store) Equal(other *Store) bool {
	a, b := s.view(), other.view()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
