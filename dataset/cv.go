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
	"github.com/gorse-io/urm/common/random"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/juju/errors"
)

// Fold is one train/test pair of a cross validation.
type Fold struct {
	Index int
	Train *sparse.CSR
	Test  *sparse.CSR
}

// FoldIterator yields folds in order.
type FoldIterator interface {
	HasNext() bool
	Next() (*Fold, error)
}

// KFold splits the entries of a matrix into k folds. Fold i tests on the
// entries labeled i and trains on all the others.
type KFold struct {
	matrix *sparse.COO
	labels []int
	k      int
	next   int
}

// NewKFold draws the fold of every entry at once. Folds are built on demand.
func NewKFold(m *sparse.COO, k int, rng *random.Generator) (*KFold, error) {
	if m == nil {
		return nil, missingState("no matrix to cross validate")
	}
	if k < 1 {
		return nil, errors.NotValidf("number of folds %d", k)
	}
	return &KFold{
		matrix: m,
		labels: rng.Uniforms(m.Nnz(), k),
		k:      k,
	}, nil
}

// Len returns the number of folds.
func (f *KFold) Len() int {
	return f.k
}

func (f *KFold) HasNext() bool {
	return f.next < f.k
}

func (f *KFold) Next() (*Fold, error) {
	if !f.HasNext() {
		return nil, errors.Annotatef(ErrNoMoreFolds, "all %d folds consumed", f.k)
	}
	i := f.next
	f.next++
	binary := make([]int, len(f.labels))
	for j, label := range f.labels {
		if label == i {
			binary[j] = 1
		}
	}
	parts := f.matrix.Partition(binary, 2)
	return &Fold{
		Index: i,
		Train: parts[0].ToCSR(),
		Test:  parts[1].ToCSR(),
	}, nil
}
