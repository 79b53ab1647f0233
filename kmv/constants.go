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
	"errors"

	"github.com/apache/datasketches-kmv-go/internal"
)

// DefaultCapacity is the default number of minimum hash values retained by a sketch
const DefaultCapacity = 5000

// MaxCapacity is the largest capacity that can be serialized
const MaxCapacity = 1 << 26

// DefaultSeed is the default seed for hashing
const DefaultSeed uint64 = internal.DEFAULT_UPDATE_SEED

// MaxItemBytes is the largest item that can be serialized
const MaxItemBytes = 1 << 20

// CapacitySentinel is the item of the reserved pair that carries the sketch capacity
// in the pair representation of a partial state.
const CapacitySentinel = "__kmv_sketch_capacity__"

// btreeDegree is the degree of the B-tree holding the retained entries
const btreeDegree = 16

var (
	ErrInvalidCapacity   = errors.New("invalid capacity")
	ErrNilHasher         = errors.New("hasher must not be nil")
	ErrNilSketch         = errors.New("sketch must not be nil")
	ErrCapacityMismatch  = errors.New("capacity mismatch")
	ErrHasherMismatch    = errors.New("hasher mismatch")
	ErrSketchNotEmpty    = errors.New("sketch is not empty")
	ErrMalformedPartial  = errors.New("malformed partial state")
	ErrMissingCapacity   = errors.New("partial state has no capacity entry")
	ErrDuplicateCapacity = errors.New("partial state has more than one capacity entry")
	ErrSentinelCollision = errors.New("item collides with the capacity sentinel")
)
