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
	"fmt"
	"math"
)

// hashSpaceWidth is the number of distinct 64-bit hash values, 2^64
const hashSpaceWidth = float64(1<<32) * float64(1<<32)

// Estimate returns the estimated number of distinct items the sketch has observed.
//
// In exact mode every distinct hash is retained and the estimate is the retained count.
// In estimation mode the horizon is the K-th smallest of N uniform draws over the
// hash space, whose expected position is K*W/(N+1); inverting gives
// estimate = K * W / (position(horizon) + 1), with position measured from math.MinInt64.
func Estimate(s *Sketch) float64 {
	if !s.estimationMode {
		return float64(s.NumRetained())
	}
	horizon, ok := s.Horizon()
	if !ok {
		return 0
	}
	ratio := float64(s.capacity) / (float64(hashPosition(horizon)) + 1)
	return ratio * hashSpaceWidth
}

// hashPosition maps a signed hash onto [0, 2^64) preserving order
func hashPosition(hash int64) uint64 {
	return uint64(hash) ^ (1 << 63)
}

// Estimate returns estimate of the distinct count of the input stream
func (s *Sketch) Estimate() float64 {
	return Estimate(s)
}

// relativeStandardError of the order statistic estimator for capacity k
func relativeStandardError(k int) float64 {
	if k <= 2 {
		return 1
	}
	return 1 / math.Sqrt(float64(k-2))
}

func checkNumStdDevs(numStdDevs uint8) error {
	if numStdDevs < 1 || numStdDevs > 3 {
		return fmt.Errorf("numStdDevs must be 1, 2 or 3: %d", numStdDevs)
	}
	return nil
}

// LowerBound returns the approximate lower error bound given a number of standard deviations.
// This parameter is similar to the number of standard deviations of the normal distribution
// and corresponds to approximately 67%, 95% and 99% confidence intervals.
// numStdDevs number of Standard Deviations (1, 2 or 3)
func (s *Sketch) LowerBound(numStdDevs uint8) (float64, error) {
	if err := checkNumStdDevs(numStdDevs); err != nil {
		return 0, err
	}
	retained := float64(s.NumRetained())
	if !s.estimationMode {
		return retained, nil
	}
	lb := s.Estimate() * (1 - float64(numStdDevs)*relativeStandardError(s.capacity))
	return math.Max(lb, retained), nil
}

// UpperBound returns the approximate upper error bound given a number of standard deviations.
// This parameter is similar to the number of standard deviations of the normal distribution
// and corresponds to approximately 67%, 95% and 99% confidence intervals.
// numStdDevs number of Standard Deviations (1, 2 or 3)
func (s *Sketch) UpperBound(numStdDevs uint8) (float64, error) {
	if err := checkNumStdDevs(numStdDevs); err != nil {
		return 0, err
	}
	if !s.estimationMode {
		return float64(s.NumRetained()), nil
	}
	return s.Estimate() * (1 + float64(numStdDevs)*relativeStandardError(s.capacity)), nil
}
