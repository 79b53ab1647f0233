/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kmv

import (
	"fmt"
	"iter"
	"strings"

	"github.com/apache/datasketches-kmv-go/internal"
	"github.com/google/btree"
)

// Entry is a retained hash value together with the item it was computed from
type Entry struct {
	Hash int64
	Item string
}

func entryLess(a, b Entry) bool {
	return a.Hash < b.Hash
}

// Sketch is a K Minimum Values (KMV) sketch.
// It retains the K smallest distinct hash values observed so far, with their items,
// ordered by hash ascending. A Sketch is not safe for concurrent mutation:
// build one sketch per worker and combine them.
//
// The zero Sketch has capacity zero: it discards every item and reads as empty
// until Reinitialize or MergePartial gives it a capacity.
type Sketch struct {
	entries  *btree.BTreeG[Entry]
	hasher   Hasher
	capacity int
	// estimationMode is set once a distinct hash has been discarded,
	// either here or in any sketch merged into this one.
	estimationMode bool
}

type sketchOptions struct {
	hasher   Hasher
	capacity int
}

type SketchOptionFunc func(*sketchOptions)

// WithSketchCapacity sets K, the number of minimum hash values the sketch retains
func WithSketchCapacity(capacity int) SketchOptionFunc {
	return func(opts *sketchOptions) {
		opts.capacity = capacity
	}
}

// WithSketchHasher sets the hash function applied to items. Should be used carefully if needed.
// Sketches produced with different hashers are not compatible
// and cannot be mixed in set operations.
func WithSketchHasher(hasher Hasher) SketchOptionFunc {
	return func(opts *sketchOptions) {
		opts.hasher = hasher
	}
}

// NewSketch creates a new empty sketch with the given options
func NewSketch(opts ...SketchOptionFunc) (*Sketch, error) {
	options := &sketchOptions{
		capacity: DefaultCapacity,
		hasher:   DefaultHasher,
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := checkCapacity(options.capacity); err != nil {
		return nil, err
	}
	if options.hasher == nil {
		return nil, ErrNilHasher
	}

	return &Sketch{
		entries:  btree.NewG[Entry](btreeDegree, entryLess),
		hasher:   options.hasher,
		capacity: options.capacity,
	}, nil
}

func checkCapacity(capacity int) error {
	if err := internal.CheckInRange(capacity, 1, MaxCapacity, "capacity"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCapacity, err)
	}
	return nil
}

// Capacity returns K, the maximum number of retained entries
func (s *Sketch) Capacity() int {
	return s.capacity
}

// Hasher returns the hash function applied by AddItem
func (s *Sketch) Hasher() Hasher {
	return s.hasher
}

func (s *Sketch) hasherID() uint16 {
	if s.hasher == nil {
		return 0
	}
	return s.hasher.ID()
}

// NumRetained returns the number of retained entries in the sketch
func (s *Sketch) NumRetained() int {
	if s.entries == nil {
		return 0
	}
	return s.entries.Len()
}

// IsEmpty returns true if the sketch retains no entries
func (s *Sketch) IsEmpty() bool {
	return s.NumRetained() == 0
}

// IsFull returns true if the sketch retains K entries, so new hashes
// are only admitted when they are below the horizon
func (s *Sketch) IsFull() bool {
	return s.NumRetained() >= s.capacity
}

// IsEstimationMode returns true if at least one distinct hash has been discarded,
// so the estimate is extrapolated from the horizon rather than counted
func (s *Sketch) IsEstimationMode() bool {
	return s.estimationMode
}

// Horizon returns the largest retained hash.
// The second return value is false if the sketch is empty.
func (s *Sketch) Horizon() (int64, bool) {
	if s.entries == nil {
		return 0, false
	}
	entry, ok := s.entries.Max()
	return entry.Hash, ok
}

// AddItem hashes the item with the sketch hasher and adds it
func (s *Sketch) AddItem(item string) {
	if s.capacity <= 0 {
		return
	}
	s.AddHash(s.hasher.Hash(item), item)
}

// AddHash adds an already hashed item.
// While the sketch is growing every hash is retained; an existing hash has its item overwritten.
// Once full, a hash is retained only if it is strictly below the horizon, in which case
// the horizon entry is evicted.
func (s *Sketch) AddHash(hash int64, item string) {
	if s.capacity <= 0 {
		return
	}

	entry := Entry{Hash: hash, Item: item}
	if s.entries.Len() < s.capacity {
		s.entries.ReplaceOrInsert(entry)
		return
	}

	horizon, _ := s.entries.Max()
	switch {
	case hash > horizon.Hash:
		s.estimationMode = true
	case hash == horizon.Hash:
		// already retained
	default:
		if _, replaced := s.entries.ReplaceOrInsert(entry); !replaced {
			s.entries.DeleteMax()
			s.estimationMode = true
		}
	}
}

// OrderedItems returns the retained items ordered by their hash ascending
func (s *Sketch) OrderedItems() []string {
	items := make([]string, 0, s.NumRetained())
	for _, item := range s.All() {
		items = append(items, item)
	}
	return items
}

// OrderedHashes returns the retained hashes in ascending order
func (s *Sketch) OrderedHashes() []int64 {
	hashes := make([]int64, 0, s.NumRetained())
	for hash := range s.All() {
		hashes = append(hashes, hash)
	}
	return hashes
}

// OrderedEntries returns a copy of the retained entries ordered by hash ascending
func (s *Sketch) OrderedEntries() []Entry {
	entries := make([]Entry, 0, s.NumRetained())
	for hash, item := range s.All() {
		entries = append(entries, Entry{Hash: hash, Item: item})
	}
	return entries
}

// All returns an iterator over retained hashes and items in ascending hash order
func (s *Sketch) All() iter.Seq2[int64, string] {
	return func(yield func(int64, string) bool) {
		if s.entries == nil {
			return
		}
		s.entries.Ascend(func(entry Entry) bool {
			return yield(entry.Hash, entry.Item)
		})
	}
}

// Clear resets the sketch to the initial empty state keeping its capacity and hasher
func (s *Sketch) Clear() {
	if s.entries != nil {
		s.entries.Clear(false)
	}
	s.estimationMode = false
}

// Reinitialize changes the capacity of an empty sketch.
// A zero Sketch also gets the default hasher.
func (s *Sketch) Reinitialize(capacity int) error {
	if err := checkCapacity(capacity); err != nil {
		return err
	}
	if !s.IsEmpty() {
		return fmt.Errorf("%w: cannot change capacity with %d retained entries", ErrSketchNotEmpty, s.NumRetained())
	}
	if s.entries == nil {
		s.entries = btree.NewG[Entry](btreeDegree, entryLess)
	}
	if s.hasher == nil {
		s.hasher = DefaultHasher
	}
	s.capacity = capacity
	s.estimationMode = false
	return nil
}

// Copy returns a deep copy of the sketch that shares no storage with the receiver
func (s *Sketch) Copy() *Sketch {
	var entries *btree.BTreeG[Entry]
	if s.entries != nil {
		entries = s.entries.Clone()
	}
	return &Sketch{
		entries:        entries,
		hasher:         s.hasher,
		capacity:       s.capacity,
		estimationMode: s.estimationMode,
	}
}

// String returns a human-readable summary of this sketch as a string
// If shouldPrintItems is true, include the list of items retained by the sketch
func (s *Sketch) String(shouldPrintItems bool) string {
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)
	horizon, _ := s.Horizon()

	var result strings.Builder
	result.WriteString("### KMV sketch summary:")
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   capacity             : %d", s.capacity))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   num retained entries : %d", s.NumRetained()))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   hasher id            : %d", s.hasherID()))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   empty?               : %t", s.IsEmpty()))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   full?                : %t", s.IsFull()))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   estimation mode?     : %t", s.IsEstimationMode()))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   horizon              : %d", horizon))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   estimate             : %f", s.Estimate()))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   lower bound 95%% conf : %f", lb))
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("   upper bound 95%% conf : %f", ub))
	result.WriteString("\n")
	result.WriteString("### End sketch summary")
	result.WriteString("\n")

	if shouldPrintItems {
		result.WriteString("### Retained entries")
		result.WriteString("\n")

		for hash, item := range s.All() {
			result.WriteString(fmt.Sprintf("%d %s", hash, item))
			result.WriteString("\n")
		}

		result.WriteString("### End retained entries")
		result.WriteString("\n")
	}

	return result.String()
}
