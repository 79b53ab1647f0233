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
	"maps"
	"slices"

	"go.uber.org/zap"
)

// Table keeps one accumulator per grouping key
type Table struct {
	groups map[string]*Accumulator
	logger *zap.Logger
	opts   []AccumulatorOptionFunc
}

// NewTable creates an empty table whose accumulators are built with the given options
func NewTable(opts ...AccumulatorOptionFunc) (*Table, error) {
	// fail on bad options now rather than on the first key
	if _, err := NewAccumulator(opts...); err != nil {
		return nil, err
	}
	return &Table{
		groups: make(map[string]*Accumulator),
		logger: newAccumulatorOptions(opts).logger,
		opts:   opts,
	}, nil
}

func (t *Table) accumulator(key string) (*Accumulator, error) {
	if acc, ok := t.groups[key]; ok {
		return acc, nil
	}
	acc, err := NewAccumulator(t.opts...)
	if err != nil {
		return nil, err
	}
	t.groups[key] = acc
	return acc, nil
}

// Accumulator returns the accumulator of a key
func (t *Table) Accumulator(key string) (*Accumulator, bool) {
	acc, ok := t.groups[key]
	return acc, ok
}

// Keys returns the grouping keys in ascending order
func (t *Table) Keys() []string {
	return slices.Sorted(maps.Keys(t.groups))
}

// Len returns the number of grouping keys
func (t *Table) Len() int {
	return len(t.groups)
}

// Consume adds a raw item to the accumulator of a key
func (t *Table) Consume(key string, value any) error {
	acc, err := t.accumulator(key)
	if err != nil {
		return err
	}
	if err := acc.Consume(value); err != nil {
		return fmt.Errorf("group %q: %w", key, err)
	}
	return nil
}

// Partials encodes the partial state of every key
func (t *Table) Partials() (map[string][]byte, error) {
	partials := make(map[string][]byte, len(t.groups))
	for key, acc := range t.groups {
		partial, err := acc.ResultAsPartial()
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", key, err)
		}
		partials[key] = partial
	}
	return partials, nil
}

// ConsumePartials folds partial states into the accumulators of their keys
func (t *Table) ConsumePartials(partials map[string][]byte) error {
	for _, key := range slices.Sorted(maps.Keys(partials)) {
		acc, err := t.accumulator(key)
		if err != nil {
			return err
		}
		if err := acc.ConsumeAsPartial(partials[key]); err != nil {
			return fmt.Errorf("group %q: %w", key, err)
		}
	}
	t.logger.Debug("Merged partial states", zap.Int("groups", len(partials)), zap.Int("total_groups", len(t.groups)))
	return nil
}

// Results reads out every key
func (t *Table) Results() (map[string]Result, error) {
	results := make(map[string]Result, len(t.groups))
	for key, acc := range t.groups {
		result, err := acc.Result()
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", key, err)
		}
		results[key] = result
	}
	return results, nil
}
