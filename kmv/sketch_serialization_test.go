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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeState(t *testing.T, state PartialState, compressed bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf, compressed).Encode(state))
	return buf.Bytes()
}

func TestSketchSerialization(t *testing.T) {
	testCases := []struct {
		name     string
		capacity int
		n        int
	}{
		{name: "empty", capacity: DefaultCapacity, n: 0},
		{name: "single item", capacity: DefaultCapacity, n: 1},
		{name: "growing", capacity: 1000, n: 500},
		{name: "full exact", capacity: 1000, n: 1000},
		{name: "estimation", capacity: 1000, n: 100000},
		{name: "capacity one", capacity: 1, n: 10},
	}
	for _, tc := range testCases {
		for _, compressed := range []bool{false, true} {
			name := tc.name
			if compressed {
				name += " compressed"
			}
			t.Run(name, func(t *testing.T) {
				original := newSketchWithItems(t, tc.capacity, itemRange("item", 0, tc.n))
				data := encodeState(t, original.PartialState(), compressed)

				state, err := NewDecoder(DefaultHasher).Decode(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, original.PartialState(), state)

				fresh, err := NewSketch(WithSketchCapacity(3))
				require.NoError(t, err)
				require.NoError(t, fresh.MergePartial(state))

				assert.Equal(t, original.Capacity(), fresh.Capacity())
				assert.Equal(t, original.OrderedEntries(), fresh.OrderedEntries())
				assert.Equal(t, original.IsEstimationMode(), fresh.IsEstimationMode())
				assert.Equal(t, original.Estimate(), fresh.Estimate())
			})
		}
	}
}

func TestSketch_MarshalBinary(t *testing.T) {
	original := newSketchWithItems(t, 256, itemRange("item", 0, 10000))
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	var restored Sketch
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 256, restored.Capacity())
	assert.Equal(t, original.OrderedEntries(), restored.OrderedEntries())
	assert.Equal(t, original.Estimate(), restored.Estimate())

	// replaces existing content
	other := newSketchWithItems(t, 16, itemRange("other", 0, 5))
	require.NoError(t, other.UnmarshalBinary(data))
	assert.Equal(t, original.OrderedEntries(), other.OrderedEntries())

	xx, err := NewSketch(WithSketchHasher(XXHasher{}))
	require.NoError(t, err)
	assert.ErrorIs(t, xx.UnmarshalBinary(data), ErrHasherMismatch)
}

func TestCompressionShrinksRepetitiveItems(t *testing.T) {
	sk, err := NewSketch(WithSketchCapacity(512))
	require.NoError(t, err)
	for i := 0; i < 512; i++ {
		sk.AddHash(int64(i), "a-fairly-long-repetitive-item-prefix-that-compresses-well")
	}
	plain := encodeState(t, sk.PartialState(), false)
	compressed := encodeState(t, sk.PartialState(), true)
	assert.Less(t, len(compressed), len(plain))
}

func TestDecodeCorruption(t *testing.T) {
	sk := newSketchWithItems(t, 8, itemRange("item", 0, 100))
	valid := encodeState(t, sk.PartialState(), false)

	corrupt := func(mutate func(b []byte) []byte) []byte {
		b := make([]byte, len(valid))
		copy(b, valid)
		return mutate(b)
	}

	testCases := []struct {
		name     string
		data     []byte
		contains string
	}{
		{
			name:     "too short",
			data:     valid[:10],
			contains: "at least 16 bytes expected",
		},
		{
			name:     "wrong preamble longs",
			data:     corrupt(func(b []byte) []byte { b[partialPreLongsByte] = 3; return b }),
			contains: "preamble longs mismatch",
		},
		{
			name:     "wrong serial version",
			data:     corrupt(func(b []byte) []byte { b[partialSerialVersionByte] = 9; return b }),
			contains: "serial version mismatch",
		},
		{
			name:     "wrong family",
			data:     corrupt(func(b []byte) []byte { b[partialFamilyByte] = 7; return b }),
			contains: "sketch family mismatch",
		},
		{
			name: "zero capacity",
			data: corrupt(func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[partialCapacityU32*4:], 0)
				return b
			}),
			contains: "capacity must not be less than 1",
		},
		{
			name: "more entries than capacity",
			data: corrupt(func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[partialNumEntriesU32*4:], 9)
				return b
			}),
			contains: "9 entries exceed capacity 8",
		},
		{
			name: "empty flag disagrees",
			data: corrupt(func(b []byte) []byte {
				b[partialFlagsByte] |= 1 << serializationFlagIsEmpty
				return b
			}),
			contains: "empty flag disagrees",
		},
		{
			name:     "truncated entries",
			data:     valid[:len(valid)-3],
			contains: "truncated",
		},
		{
			name:     "trailing bytes",
			data:     append(corrupt(func(b []byte) []byte { return b }), 0, 0),
			contains: "trailing bytes",
		},
		{
			name: "unsorted hashes",
			data: corrupt(func(b []byte) []byte {
				binary.LittleEndian.PutUint64(b[partialEntriesByte:], uint64(1<<63-1))
				return b
			}),
			contains: "not strictly ascending",
		},
		{
			name: "bad compressed block",
			data: corrupt(func(b []byte) []byte {
				b[partialFlagsByte] |= 1 << serializationFlagIsCompressed
				return b
			}),
			contains: "snappy",
		},
		{
			name: "oversized compressed block",
			data: corrupt(func(b []byte) []byte {
				b[partialFlagsByte] |= 1 << serializationFlagIsCompressed
				// a snappy block claiming 4 GiB of output
				return binary.AppendUvarint(b[:partialEntriesByte], 1<<32-1)
			}),
			contains: "snappy block decodes to 4294967295 bytes",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data, 0)
			assert.ErrorIs(t, err, ErrMalformedPartial)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}

	t.Run("hasher mismatch", func(t *testing.T) {
		_, err := Decode(valid, XXHasher{}.ID())
		assert.ErrorIs(t, err, ErrHasherMismatch)
	})

	t.Run("nil decoder hasher accepts any", func(t *testing.T) {
		state, err := NewDecoder(nil).Decode(bytes.NewReader(valid))
		assert.NoError(t, err)
		assert.Equal(t, sk.PartialState(), state)
	})
}

func TestEncodeRejectsInvalidState(t *testing.T) {
	var buf bytes.Buffer
	err := NewEncoder(&buf, false).Encode(PartialState{Capacity: 0})
	assert.ErrorIs(t, err, ErrMalformedPartial)
	assert.Zero(t, buf.Len())
}
