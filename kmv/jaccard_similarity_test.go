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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaccard(t *testing.T) {
	t.Run("Both Empty", func(t *testing.T) {
		skA, err := NewSketch()
		assert.NoError(t, err)
		skB, err := NewSketch()
		assert.NoError(t, err)

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, jc)
	})

	t.Run("Only SketchA Empty", func(t *testing.T) {
		skA, _ := NewSketch()
		skB := newSketchWithItems(t, DefaultCapacity, itemRange("x", 0, 100))

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, jc)
	})

	t.Run("Only SketchB Empty", func(t *testing.T) {
		skA := newSketchWithItems(t, DefaultCapacity, itemRange("x", 0, 100))
		skB, _ := NewSketch()

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, jc)
	})

	t.Run("Nil", func(t *testing.T) {
		sk := newSketchWithItems(t, DefaultCapacity, itemRange("x", 0, 100))

		_, err := Jaccard(sk, nil)
		assert.ErrorIs(t, err, ErrNilSketch)
		_, err = Jaccard(nil, sk)
		assert.ErrorIs(t, err, ErrNilSketch)
	})

	t.Run("Same Sketch Exact Mode", func(t *testing.T) {
		sk := newSketchWithItems(t, DefaultCapacity, itemRange("x", 0, 1000))

		jc, err := Jaccard(sk, sk.Copy())
		assert.NoError(t, err)
		assert.Equal(t, 1.0, jc)
	})

	t.Run("Same Sketch Full But Exact", func(t *testing.T) {
		sk := newSketchWithItems(t, 100, itemRange("x", 0, 100))
		require.True(t, sk.IsFull())
		require.False(t, sk.IsEstimationMode())

		jc, err := Jaccard(sk, sk.Copy())
		assert.NoError(t, err)
		assert.Equal(t, 1.0, jc)
	})

	t.Run("Same Sketch Estimation Mode", func(t *testing.T) {
		sk := newSketchWithItems(t, 512, itemRange("x", 0, 10000))
		require.True(t, sk.IsEstimationMode())

		jc, err := Jaccard(sk, sk.Copy())
		assert.NoError(t, err)
		assert.Equal(t, 1.0, jc)

		jc, err = Jaccard(sk, sk)
		assert.NoError(t, err)
		assert.Equal(t, 1.0, jc)
	})

	t.Run("Full Overlap Estimation Mode", func(t *testing.T) {
		skA := newSketchWithItems(t, 512, itemRange("x", 0, 10000))
		skB := newSketchWithItems(t, 512, itemRange("x", 0, 10000))

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.Equal(t, 1.0, jc)
	})

	t.Run("Disjoint Exact Mode", func(t *testing.T) {
		skA := newSketchWithItems(t, DefaultCapacity, itemRange("a", 0, 1000))
		skB := newSketchWithItems(t, DefaultCapacity, itemRange("b", 0, 1000))

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, jc)
	})

	t.Run("Disjoint Random UUIDs Estimation Mode", func(t *testing.T) {
		const capacity = 16384
		const n = 100000

		skA, err := NewSketch(WithSketchCapacity(capacity))
		require.NoError(t, err)
		skB, err := NewSketch(WithSketchCapacity(capacity))
		require.NoError(t, err)

		nextA := newUUIDSource(t, 11)
		nextB := newUUIDSource(t, 12)
		for i := 0; i < n; i++ {
			skA.AddItem(nextA())
			skB.AddItem(nextB())
		}

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.InDelta(t, 0.0, jc, 0.05)
	})

	t.Run("Half Overlap Exact Mode", func(t *testing.T) {
		skA := newSketchWithItems(t, DefaultCapacity, itemRange("x", 0, 1000))
		skB := newSketchWithItems(t, DefaultCapacity, itemRange("x", 500, 1500))

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.InDelta(t, 500.0/1500.0, jc, 1e-12)
	})

	t.Run("Half Overlap Estimation Mode", func(t *testing.T) {
		skA := newSketchWithItems(t, 4096, itemRange("x", 0, 100000))
		skB := newSketchWithItems(t, 4096, itemRange("x", 50000, 150000))

		jc, err := Jaccard(skA, skB)
		assert.NoError(t, err)
		assert.InDelta(t, 1.0/3.0, jc, 0.1)
	})

	t.Run("Capacity Mismatch", func(t *testing.T) {
		skA := newSketchWithItems(t, 16, itemRange("x", 0, 10))
		skB := newSketchWithItems(t, 32, itemRange("x", 0, 10))

		_, err := Jaccard(skA, skB)
		assert.ErrorIs(t, err, ErrCapacityMismatch)
	})
}

func TestIsExactlyEqual(t *testing.T) {
	skA := newSketchWithItems(t, 64, itemRange("x", 0, 1000))
	skB := newSketchWithItems(t, 64, itemRange("x", 0, 1000))
	skC := newSketchWithItems(t, 64, itemRange("x", 0, 999))

	eq, err := IsExactlyEqual(skA, skB)
	assert.NoError(t, err)
	assert.True(t, eq)

	eq, err = IsExactlyEqual(skA, skA)
	assert.NoError(t, err)
	assert.True(t, eq)

	eq, err = IsExactlyEqual(skA, skC)
	assert.NoError(t, err)
	assert.False(t, eq)

	_, err = IsExactlyEqual(skA, nil)
	assert.ErrorIs(t, err, ErrNilSketch)
}

func TestIsSimilar(t *testing.T) {
	expected := newSketchWithItems(t, 4096, itemRange("x", 0, 100000))
	actual := newSketchWithItems(t, 4096, itemRange("x", 2000, 102000))
	other := newSketchWithItems(t, 4096, itemRange("y", 0, 100000))

	similar, err := IsSimilar(actual, expected, 0.8)
	assert.NoError(t, err)
	assert.True(t, similar)

	similar, err = IsSimilar(other, expected, 0.8)
	assert.NoError(t, err)
	assert.False(t, similar)

	dissimilar, err := IsDissimilar(other, expected, 0.1)
	assert.NoError(t, err)
	assert.True(t, dissimilar)

	dissimilar, err = IsDissimilar(actual, expected, 0.1)
	assert.NoError(t, err)
	assert.False(t, dissimilar)
}
