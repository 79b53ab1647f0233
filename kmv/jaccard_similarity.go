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

// Jaccard estimates the Jaccard similarity index J(A,B) = |A ∩ B| / |A ∪ B|
// by inclusion-exclusion over the estimates of A, B and their union.
// If J = 1.0, the sketches are considered equal. If J = 0, the two sketches are disjoint.
//
// Both sketches must share the same capacity and hasher. A nil sketch is an error,
// an empty sketch has similarity 0 with anything. The result is clamped to [0, 1]
// since the difference of estimates can fall slightly outside it.
func Jaccard(sketchA, sketchB *Sketch) (float64, error) {
	if sketchA == nil || sketchB == nil {
		return 0, ErrNilSketch
	}
	if err := checkCompatible(sketchA, sketchB); err != nil {
		return 0, err
	}
	if sketchA.IsEmpty() || sketchB.IsEmpty() {
		return 0, nil
	}

	unionAB := sketchA.Copy()
	if err := unionAB.Merge(sketchB); err != nil {
		return 0, err
	}

	estUnion := unionAB.Estimate()
	intersection := sketchA.Estimate() + sketchB.Estimate() - estUnion
	return min(max(intersection/estUnion, 0), 1), nil
}

// IsExactlyEqual returns true if the two given sketches retain the same hashes
// and are in the same mode.
func IsExactlyEqual(sketchA, sketchB *Sketch) (bool, error) {
	if sketchA == nil || sketchB == nil {
		return false, ErrNilSketch
	}
	if sketchA == sketchB {
		return true, nil
	}
	if err := checkCompatible(sketchA, sketchB); err != nil {
		return false, err
	}
	if sketchA.NumRetained() != sketchB.NumRetained() ||
		sketchA.estimationMode != sketchB.estimationMode {
		return false, nil
	}

	hashesA := sketchA.OrderedHashes()
	hashesB := sketchB.OrderedHashes()
	for i := range hashesA {
		if hashesA[i] != hashesB[i] {
			return false, nil
		}
	}
	return true, nil
}

// IsSimilar returns true if the estimated Jaccard index of the actual and expected
// sketches is at least the given threshold, a real value between zero and one.
func IsSimilar(actual, expected *Sketch, threshold float64) (bool, error) {
	jc, err := Jaccard(actual, expected)
	if err != nil {
		return false, err
	}
	return jc >= threshold, nil
}

// IsDissimilar returns true if the estimated Jaccard index of the actual and expected
// sketches is at most the given threshold, a real value between zero and one.
func IsDissimilar(actual, expected *Sketch, threshold float64) (bool, error) {
	jc, err := Jaccard(actual, expected)
	if err != nil {
		return false, err
	}
	return jc <= threshold, nil
}
