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
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Partition produces the raw items of one input partition by calling yield for each.
// It must stop and return the error as soon as yield fails.
type Partition func(ctx context.Context, yield func(value any) error) error

// RunPartitions accumulates every partition into its own sketch concurrently,
// running at most parallelism partitions at a time (no limit when parallelism <= 0),
// then merges the encoded partial states in a single goroutine.
// The returned accumulator is in the merged state, or local when there are no partitions.
func RunPartitions(ctx context.Context, parallelism int, partitions []Partition, opts ...AccumulatorOptionFunc) (*Accumulator, error) {
	final, err := NewAccumulator(opts...)
	if err != nil {
		return nil, err
	}

	partials := make([][]byte, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, partition := range partitions {
		g.Go(func() error {
			acc, err := NewAccumulator(opts...)
			if err != nil {
				return err
			}
			err = partition(gctx, func(value any) error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return acc.Consume(value)
			})
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}

			partial, err := acc.ResultAsPartial()
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			partials[i] = partial
			final.logger.Debug("Partition accumulated",
				zap.Int("partition", i),
				zap.Int("retained", acc.Sketch().NumRetained()),
				zap.Int("partial_bytes", len(partial)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, partial := range partials {
		if err := final.ConsumeAsPartial(partial); err != nil {
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
	}
	final.logger.Debug("Partitions merged",
		zap.Int("partitions", len(partitions)),
		zap.Float64("estimate", final.Sketch().Estimate()))
	return final, nil
}
