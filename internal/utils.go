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

package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/twmb/murmur3"
	"golang.org/x/exp/constraints"
)

const (
	DEFAULT_UPDATE_SEED = uint64(9001)
)

// ComputeSeedHash returns a 16-bit fingerprint of a hash function name and its seed.
// Sketches built with different fingerprints must not be mixed in set operations.
func ComputeSeedHash(algorithm string, seed uint64) (uint16, error) {
	buf := make([]byte, len(algorithm)+8)
	copy(buf, algorithm)
	binary.LittleEndian.PutUint64(buf[len(algorithm):], seed)
	seedHash := uint16(murmur3.SeedSum64(0, buf) & 0xFFFF)
	if seedHash == 0 {
		return 0, fmt.Errorf("the given seed: %d produced a seed hash of zero, you must choose a different seed", seed)
	}
	return seedHash, nil
}

// CheckEqual returns an error describing the mismatch if actual differs from expected.
func CheckEqual[T comparable](actual, expected T, description string) error {
	if actual != expected {
		return fmt.Errorf("%s mismatch: expected %v, actual %v", description, expected, actual)
	}
	return nil
}

// CheckInRange returns an error if value lies outside [lo, hi].
func CheckInRange[T constraints.Integer](value, lo, hi T, description string) error {
	if value < lo {
		return fmt.Errorf("%s must not be less than %d: %d", description, lo, value)
	}
	if value > hi {
		return fmt.Errorf("%s must not be greater than %d: %d", description, hi, value)
	}
	return nil
}

// CheckBounds reports whether reqLen bytes starting at offset fit in a buffer of memCap bytes.
func CheckBounds(offset, reqLen, memCap int) bool {
	return offset >= 0 && reqLen >= 0 && offset <= memCap-reqLen
}
