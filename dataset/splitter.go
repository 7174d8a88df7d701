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

package dataset

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/common/random"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const ratioTolerance = 1e-9

const (
	TrainPart = iota
	TestPart
	ValidationPart
)

// Ratio holds the probabilities of train, test and validation.
type Ratio [3]float64

// DefaultRatio is 60% train, 20% test and 20% validation.
var DefaultRatio = Ratio{0.6, 0.2, 0.2}

// NewRatio checks a ratio given as a slice.
func NewRatio(p []float64) (Ratio, error) {
	var ratio Ratio
	if len(p) != len(ratio) {
		return ratio, errors.NotValidf("split ratio of length %d", len(p))
	}
	copy(ratio[:], p)
	return ratio, ratio.Validate()
}

// Validate checks that every probability is in [0, 1] and that they sum to one.
func (r Ratio) Validate() error {
	var sum float64
	for _, p := range r {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return errors.NotValidf("split ratio %v", r[:])
		}
		sum += p
	}
	if math.Abs(sum-1) > ratioTolerance {
		return errors.NotValidf("split ratio %v summing to %v", r[:], sum)
	}
	return nil
}

// Splits are disjoint parts of a matrix sharing its shape.
type Splits struct {
	Train      *sparse.CSR
	Test       *sparse.CSR
	Validation *sparse.CSR

	// FilteredUsers is the number of users removed by the min-ratings filter.
	FilteredUsers int
}

// FilterMinRatings drops the entries of users having fewer than minRatings
// entries. Thresholds of one or less keep everything. It returns the filtered
// matrix and the number of users removed.
func FilterMinRatings(m *sparse.COO, minRatings int) (*sparse.COO, int) {
	if minRatings <= 1 {
		return m, 0
	}
	mask := bitset.New(uint(m.NumRows))
	for row, count := range m.RowCounts() {
		if count > 0 && count < minRatings {
			mask.Set(uint(row))
		}
	}
	if mask.None() {
		return m, 0
	}
	filtered := m.Filter(func(row, _ int32, _ float32) bool {
		return !mask.Test(uint(row))
	})
	return filtered, int(mask.Count())
}

// Split assigns every entry of m to train, test or validation by an independent
// categorical draw. Users with fewer than minRatings entries are removed first.
func Split(m *sparse.COO, ratio Ratio, minRatings int, rng *random.Generator) (*Splits, error) {
	if m == nil {
		return nil, missingState("no matrix to split")
	}
	if err := ratio.Validate(); err != nil {
		return nil, err
	}
	if minRatings < 0 {
		return nil, errors.NotValidf("min_ratings %d", minRatings)
	}
	filtered, removed := FilterMinRatings(m, minRatings)
	if removed > 0 {
		log.Logger().Info("remove users with few ratings",
			zap.Int("min_ratings", minRatings), zap.Int("n_users", removed))
	}
	labels := rng.Categoricals(filtered.Nnz(), ratio[:])
	parts := filtered.Partition(labels, len(ratio))
	splits := &Splits{
		Train:      parts[TrainPart].ToCSR(),
		Test:       parts[TestPart].ToCSR(),
		Validation: parts[ValidationPart].ToCSR(),

		FilteredUsers: removed,
	}
	log.Logger().Info("split user rating matrix",
		zap.Int("n_train", splits.Train.Nnz()),
		zap.Int("n_test", splits.Test.Nnz()),
		zap.Int("n_validation", splits.Validation.Nnz()))
	return splits, nil
}
