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
	"unsafe"

	"github.com/apache/datasketches-kmv-go/internal"
	"github.com/cespare/xxhash/v2"
	"github.com/twmb/murmur3"
)

// Hasher maps an item to a uniformly distributed signed 64-bit value.
// Implementations must be deterministic across processes and architectures,
// otherwise independently built sketches cannot be combined.
type Hasher interface {
	// Hash returns the 64-bit hash of the item
	Hash(item string) int64

	// ID returns a non-zero fingerprint of the hash function and its seed.
	// Sketches whose hashers have different IDs are not compatible.
	ID() uint16
}

// DefaultHasher is the hasher used when no other is configured
var DefaultHasher Hasher = Murmur3Hasher{Seed: DefaultSeed}

// Murmur3Hasher hashes items with the 64-bit MurmurHash3 x64 variant
type Murmur3Hasher struct {
	Seed uint64
}

func (h Murmur3Hasher) Hash(item string) int64 {
	return int64(murmur3.SeedSum64(h.Seed, stringBytes(item)))
}

func (h Murmur3Hasher) ID() uint16 {
	return seedHashOrFallback("murmur3", h.Seed)
}

// XXHasher hashes items with xxHash64
type XXHasher struct {
	Seed uint64
}

func (h XXHasher) Hash(item string) int64 {
	if h.Seed == 0 {
		return int64(xxhash.Sum64String(item))
	}
	d := xxhash.NewWithSeed(h.Seed)
	_, _ = d.WriteString(item)
	return int64(d.Sum64())
}

func (h XXHasher) ID() uint16 {
	return seedHashOrFallback("xxhash64", h.Seed)
}

// stringBytes views the string data without copying
func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// seedHashOrFallback never returns zero so that an ID of zero can mean "unset"
func seedHashOrFallback(algorithm string, seed uint64) uint16 {
	seedHash, err := internal.ComputeSeedHash(algorithm, seed)
	if err != nil {
		return 1
	}
	return seedHash
}
