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
	"bytes"
	"errors"
	"fmt"

	"github.com/apache/datasketches-kmv-go/kmv"
	"go.uber.org/zap"
)

var (
	ErrNilItem          = errors.New("item must not be nil")
	ErrUnsupportedValue = errors.New("unsupported value type")
	ErrInvalidState     = errors.New("invalid accumulator state")
)

// State is the stage of an accumulator in the partial aggregation protocol
type State uint8

const (
	// StateLocal accumulates raw items into a private sketch
	StateLocal State = iota
	// StatePartial has handed its sketch out as an encoded partial state
	StatePartial
	// StateMerged has folded at least one partial state into its sketch
	StateMerged
	// StateFinal has been read out
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateLocal:
		return "local"
	case StatePartial:
		return "partial"
	case StateMerged:
		return "merged"
	case StateFinal:
		return "final"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Result is the read-out of an accumulator
type Result struct {
	Estimate       float64
	LowerBound     float64
	UpperBound     float64
	NumRetained    int
	Capacity       int
	EstimationMode bool
}

type accumulatorOptions struct {
	hasher     kmv.Hasher
	logger     *zap.Logger
	capacity   int
	compressed bool
}

type AccumulatorOptionFunc func(*accumulatorOptions)

// WithCapacity sets the capacity of the sketch built from raw items.
// A fresh accumulator receiving partial states adopts their capacity instead.
func WithCapacity(capacity int) AccumulatorOptionFunc {
	return func(opts *accumulatorOptions) {
		opts.capacity = capacity
	}
}

// WithHasher sets the hash function applied to items
func WithHasher(hasher kmv.Hasher) AccumulatorOptionFunc {
	return func(opts *accumulatorOptions) {
		opts.hasher = hasher
	}
}

// WithCompression makes ResultAsPartial emit compressed partial states
func WithCompression(compressed bool) AccumulatorOptionFunc {
	return func(opts *accumulatorOptions) {
		opts.compressed = compressed
	}
}

// WithLogger sets the logger, which defaults to a no-op logger
func WithLogger(logger *zap.Logger) AccumulatorOptionFunc {
	return func(opts *accumulatorOptions) {
		opts.logger = logger
	}
}

func newAccumulatorOptions(opts []AccumulatorOptionFunc) *accumulatorOptions {
	options := &accumulatorOptions{
		capacity: kmv.DefaultCapacity,
		hasher:   kmv.DefaultHasher,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	return options
}

// Accumulator computes a distinct count as one step of a distributed aggregation.
// Workers Consume raw items and hand their sketch out with ResultAsPartial;
// a reducer folds the partials with ConsumeAsPartial and reads the Result.
// An Accumulator must only be used from one goroutine at a time.
type Accumulator struct {
	sketch     *kmv.Sketch
	logger     *zap.Logger
	state      State
	compressed bool
}

// NewAccumulator creates an accumulator in the local state
func NewAccumulator(opts ...AccumulatorOptionFunc) (*Accumulator, error) {
	options := newAccumulatorOptions(opts)

	sketch, err := kmv.NewSketch(
		kmv.WithSketchCapacity(options.capacity),
		kmv.WithSketchHasher(options.hasher),
	)
	if err != nil {
		return nil, err
	}

	return &Accumulator{
		sketch:     sketch,
		logger:     options.logger,
		state:      StateLocal,
		compressed: options.compressed,
	}, nil
}

// State returns the current protocol state
func (a *Accumulator) State() State {
	return a.state
}

// Sketch returns the underlying sketch. It must not be mutated by the caller.
func (a *Accumulator) Sketch() *kmv.Sketch {
	return a.sketch
}

func (a *Accumulator) transition(to State) {
	if a.state == to {
		return
	}
	a.logger.Debug("Accumulator state changed",
		zap.Stringer("from", a.state),
		zap.Stringer("to", to),
		zap.Int("retained", a.sketch.NumRetained()))
	a.state = to
}

func (a *Accumulator) invalidState(op string) error {
	return fmt.Errorf("%w: %s in %s state", ErrInvalidState, op, a.state)
}

// Consume adds one raw item. Only valid while accumulating locally.
func (a *Accumulator) Consume(value any) error {
	if a.state != StateLocal {
		return a.invalidState("consume")
	}
	item, err := itemString(value)
	if err != nil {
		return err
	}
	a.sketch.AddItem(item)
	return nil
}

// ResultAsPartial encodes the sketch as a partial state for transport.
// After this call the accumulator no longer takes raw items or partials,
// though the partial can be requested again.
func (a *Accumulator) ResultAsPartial() ([]byte, error) {
	switch a.state {
	case StateLocal, StateMerged, StatePartial:
	default:
		return nil, a.invalidState("result as partial")
	}

	var buf bytes.Buffer
	if err := kmv.NewEncoder(&buf, a.compressed).Encode(a.sketch.PartialState()); err != nil {
		return nil, fmt.Errorf("encoding partial state: %w", err)
	}
	a.transition(StatePartial)
	return buf.Bytes(), nil
}

// ConsumeAsPartial decodes a partial state and folds it into the sketch.
// An accumulator that has not seen any item adopts the capacity of the partial.
// Merging the same partials in any order gives the same result.
func (a *Accumulator) ConsumeAsPartial(partial []byte) error {
	switch a.state {
	case StateLocal, StateMerged:
	default:
		return a.invalidState("consume as partial")
	}

	state, err := kmv.Decode(partial, a.sketch.Hasher().ID())
	if err != nil {
		return fmt.Errorf("decoding partial state: %w", err)
	}
	if state.Capacity != a.sketch.Capacity() && a.sketch.IsEmpty() {
		a.logger.Debug("Adopting capacity of partial state",
			zap.Int("configured", a.sketch.Capacity()),
			zap.Int("partial", state.Capacity))
	}
	if err := a.sketch.MergePartial(state); err != nil {
		return fmt.Errorf("merging partial state: %w", err)
	}
	a.transition(StateMerged)
	return nil
}

// Result reads the final value out. It can be called repeatedly.
func (a *Accumulator) Result() (Result, error) {
	if a.state == StatePartial {
		return Result{}, a.invalidState("result")
	}
	a.transition(StateFinal)

	lb, err := a.sketch.LowerBound(2)
	if err != nil {
		return Result{}, err
	}
	ub, err := a.sketch.UpperBound(2)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Estimate:       a.sketch.Estimate(),
		LowerBound:     lb,
		UpperBound:     ub,
		NumRetained:    a.sketch.NumRetained(),
		Capacity:       a.sketch.Capacity(),
		EstimationMode: a.sketch.IsEstimationMode(),
	}, nil
}

// Items returns the retained items ordered by hash ascending
func (a *Accumulator) Items() []string {
	return a.sketch.OrderedItems()
}

// Jaccard estimates the similarity of this accumulator with another one
func (a *Accumulator) Jaccard(other *Accumulator) (float64, error) {
	if other == nil {
		return 0, kmv.ErrNilSketch
	}
	return kmv.Jaccard(a.sketch, other.sketch)
}
