// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package random

import "math/rand"

// Generator is a seeded random stream. One generator is shared by every stage
// of a build and is never reseeded, so a fixed seed reproduces the whole build.
type Generator struct {
	*rand.Rand
}

// New creates a Generator.
func New(seed int64) *Generator {
	return &Generator{rand.New(rand.NewSource(seed))}
}

// Categorical draws an index i with probability p[i]. Probabilities are assumed
// to sum to one. Categories with zero probability are never drawn.
func (rng *Generator) Categorical(p []float64) int {
	u := rng.Float64()
	var cum float64
	last := -1
	for i, pi := range p {
		if pi <= 0 {
			continue
		}
		cum += pi
		last = i
		if u < cum {
			return i
		}
	}
	// rounding left the cumulative sum slightly below one
	return last
}

// Categoricals draws n independent categorical labels.
func (rng *Generator) Categoricals(n int, p []float64) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.Categorical(p)
	}
	return labels
}

// Uniforms draws n labels uniformly from [0, k).
func (rng *Generator) Uniforms(n, k int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.Intn(k)
	}
	return labels
}
