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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const randomEpsilon = 0.02

func TestGenerator_Categorical(t *testing.T) {
	rng := New(0)
	p := []float64{0.6, 0.3, 0.1}
	labels := rng.Categoricals(100000, p)
	counts := make([]float64, 3)
	for _, label := range labels {
		counts[label]++
	}
	for i := range p {
		assert.False(t, math.Abs(counts[i]/100000-p[i]) > randomEpsilon)
	}
}

func TestGenerator_CategoricalDegenerate(t *testing.T) {
	rng := New(0)
	for _, label := range rng.Categoricals(1000, []float64{1, 0, 0}) {
		assert.Equal(t, 0, label)
	}
	for _, label := range rng.Categoricals(1000, []float64{0, 0, 1}) {
		assert.Equal(t, 2, label)
	}
}

func TestGenerator_Uniforms(t *testing.T) {
	rng := New(0)
	labels := rng.Uniforms(1000, 7)
	for _, label := range labels {
		assert.GreaterOrEqual(t, label, 0)
		assert.Less(t, label, 7)
	}
}

func TestGenerator_Seed(t *testing.T) {
	a := New(1234).Categoricals(100, []float64{0.5, 0.25, 0.25})
	b := New(1234).Categoricals(100, []float64{0.5, 0.25, 0.25})
	assert.Equal(t, a, b)
}
