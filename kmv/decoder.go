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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/apache/datasketches-kmv-go/internal"
	"github.com/golang/snappy"
)

// Decoder decodes a partial state from the given reader.
type Decoder struct {
	hasherID uint16
}

// NewDecoder creates a new decoder that only accepts states built with the given hasher.
// A nil hasher accepts any.
func NewDecoder(hasher Hasher) Decoder {
	if hasher == nil {
		return Decoder{}
	}
	return Decoder{hasherID: hasher.ID()}
}

// Decode decodes a partial state from the given reader.
func (dec Decoder) Decode(r io.Reader) (PartialState, error) {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return PartialState{}, err
	}

	return Decode(bytes, dec.hasherID)
}

// Decode decodes a partial state from the given bytes.
// A non-zero hasherID must match the one recorded in the state.
func Decode(bytes []byte, hasherID uint16) (PartialState, error) {
	if len(bytes) < partialEntriesByte {
		return PartialState{}, fmt.Errorf("%w: at least %d bytes expected, actual %d", ErrMalformedPartial, partialEntriesByte, len(bytes))
	}
	if err := internal.CheckEqual(int(bytes[partialPreLongsByte]), internal.FamilyEnum.KMV.MaxPreLongs, "preamble longs"); err != nil {
		return PartialState{}, fmt.Errorf("%w: %w", ErrMalformedPartial, err)
	}
	if err := internal.CheckEqual(bytes[partialSerialVersionByte], SerialVersion, "serial version"); err != nil {
		return PartialState{}, fmt.Errorf("%w: %w", ErrMalformedPartial, err)
	}
	if err := internal.CheckEqual(int(bytes[partialFamilyByte]), internal.FamilyEnum.KMV.Id, "sketch family"); err != nil {
		return PartialState{}, fmt.Errorf("%w: %w", ErrMalformedPartial, err)
	}

	flags := bytes[partialFlagsByte]
	isEmpty := flags&(1<<serializationFlagIsEmpty) != 0
	isCompressed := flags&(1<<serializationFlagIsCompressed) != 0

	state := PartialState{
		HasherID:       binary.LittleEndian.Uint16(bytes[partialHasherIDU16*2:]),
		Capacity:       int(binary.LittleEndian.Uint32(bytes[partialCapacityU32*4:])),
		EstimationMode: flags&(1<<serializationFlagIsEstimationMode) != 0,
	}
	if hasherID != 0 && state.HasherID != hasherID {
		return PartialState{}, fmt.Errorf("%w: expected %d, actual %d", ErrHasherMismatch, hasherID, state.HasherID)
	}
	if err := checkCapacity(state.Capacity); err != nil {
		return PartialState{}, fmt.Errorf("%w: %w", ErrMalformedPartial, err)
	}

	numEntries := int(binary.LittleEndian.Uint32(bytes[partialNumEntriesU32*4:]))
	if numEntries > state.Capacity {
		return PartialState{}, fmt.Errorf("%w: %d entries exceed capacity %d", ErrMalformedPartial, numEntries, state.Capacity)
	}
	if isEmpty != (numEntries == 0) {
		return PartialState{}, fmt.Errorf("%w: empty flag disagrees with %d entries", ErrMalformedPartial, numEntries)
	}

	block := bytes[partialEntriesByte:]
	if isCompressed {
		decodedLen, err := snappy.DecodedLen(block)
		if err != nil {
			return PartialState{}, fmt.Errorf("%w: %w", ErrMalformedPartial, err)
		}
		if maxLen := numEntries * (entryHashBytes + entryLengthBytes + MaxItemBytes); decodedLen > maxLen {
			return PartialState{}, fmt.Errorf("%w: snappy block decodes to %d bytes, at most %d expected", ErrMalformedPartial, decodedLen, maxLen)
		}
		block, err = snappy.Decode(nil, block)
		if err != nil {
			return PartialState{}, fmt.Errorf("%w: %w", ErrMalformedPartial, err)
		}
	}
	entries, err := decodeEntries(block, numEntries)
	if err != nil {
		return PartialState{}, err
	}
	state.Entries = entries

	if err := state.Validate(); err != nil {
		return PartialState{}, err
	}
	return state, nil
}

func decodeEntries(block []byte, numEntries int) ([]Entry, error) {
	if numEntries > len(block)/(entryHashBytes+entryLengthBytes) {
		return nil, fmt.Errorf("%w: %d entries cannot fit in %d bytes", ErrMalformedPartial, numEntries, len(block))
	}
	entries := make([]Entry, numEntries)
	offset := 0
	for i := range entries {
		if !internal.CheckBounds(offset, entryHashBytes+entryLengthBytes, len(block)) {
			return nil, fmt.Errorf("%w: entry %d truncated", ErrMalformedPartial, i)
		}
		entries[i].Hash = int64(binary.LittleEndian.Uint64(block[offset:]))
		offset += entryHashBytes
		itemLen := int(binary.LittleEndian.Uint32(block[offset:]))
		offset += entryLengthBytes
		if !internal.CheckBounds(offset, itemLen, len(block)) {
			return nil, fmt.Errorf("%w: item of entry %d truncated", ErrMalformedPartial, i)
		}
		entries[i].Item = string(block[offset : offset+itemLen])
		offset += itemLen
	}
	if offset != len(block) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedPartial, len(block)-offset)
	}
	return entries, nil
}

// UnmarshalBinary replaces the content of the sketch with a decoded partial state,
// adopting its capacity. A zero Sketch uses the default hasher.
func (s *Sketch) UnmarshalBinary(data []byte) error {
	state, err := Decode(data, s.hasherID())
	if err != nil {
		return err
	}
	s.Clear()
	return s.MergePartial(state)
}
