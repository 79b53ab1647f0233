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

import "fmt"

// Combine folds every retained entry of other into receiver.
// The result equals the sketch that would have been built from the union of both
// input streams. Both sketches must share the same capacity and hasher.
// other is left unchanged and no storage is shared between the two.
func Combine(receiver, other *Sketch) error {
	if receiver == nil || other == nil {
		return ErrNilSketch
	}
	if err := checkCompatible(receiver, other); err != nil {
		return err
	}
	if receiver == other {
		return nil
	}

	receiver.mergeEntries(other.OrderedEntries(), other.estimationMode)
	return nil
}

// Merge folds other into this sketch, see Combine
func (s *Sketch) Merge(other *Sketch) error {
	return Combine(s, other)
}

// Union builds a new sketch holding the union of the given sketches,
// which must all share the same capacity and hasher.
func Union(sketches ...*Sketch) (*Sketch, error) {
	if len(sketches) == 0 {
		return NewSketch()
	}
	if sketches[0] == nil {
		return nil, ErrNilSketch
	}

	result, err := NewSketch(
		WithSketchCapacity(sketches[0].capacity),
		WithSketchHasher(sketches[0].hasher),
	)
	if err != nil {
		return nil, err
	}
	for i, sketch := range sketches {
		if err := Combine(result, sketch); err != nil {
			return nil, fmt.Errorf("sketch %d: %w", i, err)
		}
	}
	return result, nil
}

// mergeEntries adds entries given in ascending hash order
func (s *Sketch) mergeEntries(entries []Entry, estimationMode bool) {
	if estimationMode {
		s.estimationMode = true
	}
	for _, entry := range entries {
		if s.IsFull() {
			horizon, _ := s.Horizon()
			// entries are ordered, so nothing after this can be admitted
			if entry.Hash > horizon {
				s.estimationMode = true
				break
			}
		}
		s.AddHash(entry.Hash, entry.Item)
	}
}

func checkCompatible(a, b *Sketch) error {
	if a.capacity != b.capacity {
		return fmt.Errorf("%w: expected %d, actual %d", ErrCapacityMismatch, a.capacity, b.capacity)
	}
	if a.hasherID() != b.hasherID() {
		return fmt.Errorf("%w: expected %d, actual %d", ErrHasherMismatch, a.hasherID(), b.hasherID())
	}
	return nil
}
