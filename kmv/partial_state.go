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
	"cmp"
	"fmt"
	"slices"
)

// PartialState is the transportable snapshot of a sketch exchanged between the
// accumulation and merge phases of a distributed aggregation.
// Capacity travels alongside the entries, so a receiver that has not been configured
// yet can adopt it before merging.
type PartialState struct {
	Entries []Entry
	// Capacity is K of the sketch the state was taken from
	Capacity int
	// HasherID identifies the hash function, zero when unknown
	HasherID uint16
	// EstimationMode is set when the source sketch had discarded hashes
	EstimationMode bool
}

// PartialState returns a snapshot of the sketch with entries ordered by hash ascending
func (s *Sketch) PartialState() PartialState {
	return PartialState{
		Entries:        s.OrderedEntries(),
		Capacity:       s.capacity,
		HasherID:       s.hasherID(),
		EstimationMode: s.estimationMode,
	}
}

// Validate checks the invariants every sketch snapshot satisfies
func (p PartialState) Validate() error {
	if err := checkCapacity(p.Capacity); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPartial, err)
	}
	if len(p.Entries) > p.Capacity {
		return fmt.Errorf("%w: %d entries exceed capacity %d", ErrMalformedPartial, len(p.Entries), p.Capacity)
	}
	if p.EstimationMode && len(p.Entries) != p.Capacity {
		return fmt.Errorf("%w: estimation mode with %d of %d entries", ErrMalformedPartial, len(p.Entries), p.Capacity)
	}
	for i, entry := range p.Entries {
		if len(entry.Item) > MaxItemBytes {
			return fmt.Errorf("%w: item of entry %d exceeds %d bytes", ErrMalformedPartial, i, MaxItemBytes)
		}
	}
	for i := 1; i < len(p.Entries); i++ {
		if p.Entries[i-1].Hash >= p.Entries[i].Hash {
			return fmt.Errorf("%w: hashes not strictly ascending at entry %d", ErrMalformedPartial, i)
		}
	}
	return nil
}

// MergePartial folds a partial state into the sketch.
// An empty sketch adopts the capacity of the partial state first; a non-empty sketch
// requires the capacities to match. A zero Sketch uses the default hasher.
func (s *Sketch) MergePartial(p PartialState) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if s.entries == nil {
		if err := s.Reinitialize(p.Capacity); err != nil {
			return err
		}
	}
	if p.HasherID != 0 && p.HasherID != s.hasherID() {
		return fmt.Errorf("%w: expected %d, actual %d", ErrHasherMismatch, s.hasherID(), p.HasherID)
	}
	if p.Capacity != s.capacity {
		if !s.IsEmpty() {
			return fmt.Errorf("%w: sketch has %d, partial state has %d", ErrCapacityMismatch, s.capacity, p.Capacity)
		}
		if err := s.Reinitialize(p.Capacity); err != nil {
			return err
		}
	}

	s.mergeEntries(p.Entries, p.EstimationMode)
	return nil
}

// NewSketchFromPartial builds a sketch holding the given partial state.
// A capacity option is overridden by the capacity of the partial state.
func NewSketchFromPartial(p PartialState, opts ...SketchOptionFunc) (*Sketch, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	opts = append(opts, WithSketchCapacity(p.Capacity))
	s, err := NewSketch(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.MergePartial(p); err != nil {
		return nil, err
	}
	return s, nil
}

// Pairs flattens the state into (hash, item) pairs for transports that only carry
// key/value content. The capacity is appended as one reserved pair whose item is
// CapacitySentinel and whose hash is the capacity, negated in estimation mode.
func (p PartialState) Pairs() ([]Entry, error) {
	pairs := make([]Entry, 0, len(p.Entries)+1)
	for _, entry := range p.Entries {
		if entry.Item == CapacitySentinel {
			return nil, fmt.Errorf("%w: hash %d", ErrSentinelCollision, entry.Hash)
		}
		pairs = append(pairs, entry)
	}
	capacity := int64(p.Capacity)
	if p.EstimationMode {
		capacity = -capacity
	}
	return append(pairs, Entry{Hash: capacity, Item: CapacitySentinel}), nil
}

// PartialStateFromPairs rebuilds a partial state from the output of Pairs.
// Pairs may arrive in any order. Exactly one capacity pair is required.
// The hasher is not carried by pairs and is left unknown.
func PartialStateFromPairs(pairs []Entry) (PartialState, error) {
	var (
		p           PartialState
		hasCapacity bool
	)
	p.Entries = make([]Entry, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Item != CapacitySentinel {
			p.Entries = append(p.Entries, pair)
			continue
		}
		if hasCapacity {
			return PartialState{}, ErrDuplicateCapacity
		}
		capacity := pair.Hash
		if capacity < 0 {
			capacity = -capacity
			p.EstimationMode = true
		}
		if capacity <= 0 || capacity > MaxCapacity {
			return PartialState{}, fmt.Errorf("%w: capacity entry holds %d", ErrMalformedPartial, pair.Hash)
		}
		p.Capacity = int(capacity)
		hasCapacity = true
	}
	if !hasCapacity {
		return PartialState{}, ErrMissingCapacity
	}

	slices.SortFunc(p.Entries, func(a, b Entry) int {
		return cmp.Compare(a.Hash, b.Hash)
	})
	if err := p.Validate(); err != nil {
		return PartialState{}, err
	}
	return p, nil
}
