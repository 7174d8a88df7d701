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
	"testing"

	"github.com/gorse-io/urm/common/random"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKFold(t *testing.T) {
	m := newRandomMatrix(30, 30, 300, 0)
	expected := collectEntries(t, m.ToCSR())
	folds, err := NewKFold(m, 5, random.New(0))
	require.NoError(t, err)
	assert.Equal(t, 5, folds.Len())

	var iterator FoldIterator = folds
	var tests []*sparse.CSR
	for i := 0; iterator.HasNext(); i++ {
		fold, err := iterator.Next()
		require.NoError(t, err)
		assert.Equal(t, i, fold.Index)
		assert.Equal(t, 30, fold.Train.NumRows)
		assert.Equal(t, 30, fold.Test.NumCols)
		assert.Equal(t, m.Nnz(), fold.Train.Nnz()+fold.Test.Nnz())
		assert.Equal(t, expected, collectEntries(t, fold.Train, fold.Test))
		tests = append(tests, fold.Test)
	}
	assert.Len(t, tests, 5)
	// every entry is tested exactly once
	assert.Equal(t, expected, collectEntries(t, tests...))

	_, err = iterator.Next()
	assert.True(t, errors.Is(err, ErrNoMoreFolds))
}

func TestKFold_SingleFold(t *testing.T) {
	m := newRandomMatrix(5, 5, 10, 0)
	folds, err := NewKFold(m, 1, random.New(0))
	require.NoError(t, err)
	fold, err := folds.Next()
	require.NoError(t, err)
	assert.Zero(t, fold.Train.Nnz())
	assert.Equal(t, m.ToCSR(), fold.Test)
	assert.False(t, folds.HasNext())
}

func TestKFold_Invalid(t *testing.T) {
	_, err := NewKFold(nil, 5, random.New(0))
	assert.True(t, errors.Is(err, ErrMissingState))
	_, err = NewKFold(newRandomMatrix(5, 5, 5, 0), 0, random.New(0))
	assert.True(t, errors.Is(err, errors.NotValid))
}
