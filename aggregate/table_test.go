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

package aggregate

import (
	"fmt"
	"testing"

	"github.com/apache/datasketches-kmv-go/kmv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	t.Run("Invalid Options", func(t *testing.T) {
		_, err := NewTable(WithCapacity(-1))
		assert.ErrorIs(t, err, kmv.ErrInvalidCapacity)
	})

	t.Run("Group By Key", func(t *testing.T) {
		table, err := NewTable(WithCapacity(64))
		require.NoError(t, err)
		for i := 0; i < 1000; i++ {
			require.NoError(t, table.Consume("even", fmt.Sprintf("%d", i*2)))
			require.NoError(t, table.Consume("small", i%10))
		}

		assert.Equal(t, 2, table.Len())
		assert.Equal(t, []string{"even", "small"}, table.Keys())

		results, err := table.Results()
		require.NoError(t, err)
		assert.Equal(t, 10.0, results["small"].Estimate)
		assert.True(t, results["even"].EstimationMode)
		assert.InEpsilon(t, 1000, results["even"].Estimate, 0.5)

		acc, ok := table.Accumulator("small")
		require.True(t, ok)
		assert.Equal(t, StateFinal, acc.State())
		_, ok = table.Accumulator("missing")
		assert.False(t, ok)
	})

	t.Run("Unsupported Value", func(t *testing.T) {
		table, err := NewTable()
		require.NoError(t, err)
		err = table.Consume("key", 1+2i)
		assert.ErrorIs(t, err, ErrUnsupportedValue)
		assert.Contains(t, err.Error(), `group "key"`)
	})

	t.Run("Two Phase Aggregation", func(t *testing.T) {
		workers := make([]*Table, 3)
		for w := range workers {
			table, err := NewTable(WithCapacity(32))
			require.NoError(t, err)
			for i := 0; i < 500; i++ {
				require.NoError(t, table.Consume(fmt.Sprintf("k%d", i%4), fmt.Sprintf("%d-%d", w, i)))
			}
			workers[w] = table
		}

		reducer, err := NewTable()
		require.NoError(t, err)
		for _, worker := range workers {
			partials, err := worker.Partials()
			require.NoError(t, err)
			require.Len(t, partials, 4)
			require.NoError(t, reducer.ConsumePartials(partials))
		}

		serial, err := NewTable(WithCapacity(32))
		require.NoError(t, err)
		for w := range workers {
			for i := 0; i < 500; i++ {
				require.NoError(t, serial.Consume(fmt.Sprintf("k%d", i%4), fmt.Sprintf("%d-%d", w, i)))
			}
		}

		got, err := reducer.Results()
		require.NoError(t, err)
		expected, err := serial.Results()
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		for _, result := range got {
			assert.Equal(t, 32, result.Capacity)
		}
	})

	t.Run("Partials After Results", func(t *testing.T) {
		table, err := NewTable()
		require.NoError(t, err)
		require.NoError(t, table.Consume("k", "v"))
		_, err = table.Results()
		require.NoError(t, err)

		_, err = table.Partials()
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}
