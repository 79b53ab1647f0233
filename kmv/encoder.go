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
	"io"

	"github.com/apache/datasketches-kmv-go/internal"
	"github.com/golang/snappy"
)

const SerialVersion = 1

// Offsets in bytes
const (
	partialPreLongsByte      = 0
	partialSerialVersionByte = 1
	partialFamilyByte        = 2
	partialFlagsByte         = 3
	partialHasherIDU16       = 2 // offset in uint16 units
	partialCapacityU32       = 2 // offset in uint32 units
	partialNumEntriesU32     = 3 // offset in uint32 units
	partialEntriesByte       = 16
)

// Serialization flags
const (
	serializationFlagIsEmpty uint8 = iota
	serializationFlagIsCompressed
	serializationFlagIsEstimationMode
)

const (
	entryHashBytes   = 8
	entryLengthBytes = 4
)

// Encoder encodes a partial state to bytes.
//
// Layout: a 16 byte preamble (pre-longs, serial version, family, flags, hasher id,
// capacity, number of entries) followed by the entries in ascending hash order,
// each as a little-endian int64 hash, a uint32 item length and the item bytes.
// When compressed, the entry block is snappy encoded.
type Encoder struct {
	w          io.Writer
	compressed bool
}

// NewEncoder creates a new encoder.
func NewEncoder(w io.Writer, compressed bool) Encoder {
	return Encoder{w: w, compressed: compressed}
}

// Encode encodes a partial state to bytes.
func (enc Encoder) Encode(state PartialState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	block := encodeEntries(state.Entries)
	compressed := enc.compressed && len(state.Entries) > 0
	if compressed {
		block = snappy.Encode(nil, block)
	}

	out := make([]byte, partialEntriesByte+len(block))
	out[partialPreLongsByte] = uint8(internal.FamilyEnum.KMV.MaxPreLongs)
	out[partialSerialVersionByte] = SerialVersion
	out[partialFamilyByte] = uint8(internal.FamilyEnum.KMV.Id)

	flags := byte(0)
	if len(state.Entries) == 0 {
		flags |= 1 << serializationFlagIsEmpty
	}
	if compressed {
		flags |= 1 << serializationFlagIsCompressed
	}
	if state.EstimationMode {
		flags |= 1 << serializationFlagIsEstimationMode
	}
	out[partialFlagsByte] = flags

	binary.LittleEndian.PutUint16(out[partialHasherIDU16*2:], state.HasherID)
	binary.LittleEndian.PutUint32(out[partialCapacityU32*4:], uint32(state.Capacity))
	binary.LittleEndian.PutUint32(out[partialNumEntriesU32*4:], uint32(len(state.Entries)))
	copy(out[partialEntriesByte:], block)

	n, err := enc.w.Write(out)
	if err != nil {
		return err
	}
	if n != len(out) {
		return io.ErrShortWrite
	}
	return nil
}

func encodeEntries(entries []Entry) []byte {
	size := 0
	for _, entry := range entries {
		size += entryHashBytes + entryLengthBytes + len(entry.Item)
	}

	block := make([]byte, size)
	offset := 0
	for _, entry := range entries {
		binary.LittleEndian.PutUint64(block[offset:], uint64(entry.Hash))
		offset += entryHashBytes
		binary.LittleEndian.PutUint32(block[offset:], uint32(len(entry.Item)))
		offset += entryLengthBytes
		offset += copy(block[offset:], entry.Item)
	}
	return block
}

// MarshalBinary encodes the sketch as an uncompressed partial state
func (s *Sketch) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, false).Encode(s.PartialState()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
