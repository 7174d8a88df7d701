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
	"bytes"
	"testing"

	"github.com/gorse-io/urm/common/sparse"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInteractions(triples ...[3]float32) *Interactions {
	in := &Interactions{}
	for _, triple := range triples {
		in.Append(uint32(triple[0]), uint32(triple[1]), triple[2])
	}
	return in
}

func TestBuild(t *testing.T) {
	in := newInteractions([3]float32{1, 10, 5}, [3]float32{2, 10, 3}, [3]float32{1, 20, 4})
	urm, err := Build(in, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, urm.Matrix.NumRows)
	assert.Equal(t, 2, urm.Matrix.NumCols)
	assert.Equal(t, []int32{0, 1, 0}, urm.Matrix.Rows)
	assert.Equal(t, []int32{0, 0, 1}, urm.Matrix.Cols)
	assert.Equal(t, []float32{5, 3, 4}, urm.Matrix.Data)
	assert.Equal(t, []uint32{1, 2}, urm.Users.Names)
	assert.Equal(t, []uint32{10, 20}, urm.Items.Names)
	assert.Empty(t, urm.DroppedItems)
}

func TestBuild_Implicit(t *testing.T) {
	in := newInteractions([3]float32{1, 10, 5}, [3]float32{2, 10, 0}, [3]float32{1, 20, 4})
	urm, err := Build(in, BuildOptions{Implicit: true})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1}, urm.Matrix.Data)
	// the input is left untouched
	assert.Equal(t, []float32{5, 0, 4}, in.Data)
}

func TestBuild_RemoveTopPop(t *testing.T) {
	in := newInteractions(
		[3]float32{1, 10, 1}, [3]float32{2, 10, 1}, [3]float32{3, 10, 1},
		[3]float32{1, 20, 1}, [3]float32{2, 20, 1},
		[3]float32{1, 30, 1}, [3]float32{3, 30, 1},
		[3]float32{4, 40, 1},
		[3]float32{5, 30, 1},
	)
	// counts: 10 -> 3, 30 -> 3, 20 -> 2, 40 -> 1
	urm, err := Build(in, BuildOptions{RemoveTopPop: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []uint32{30, 10}, urm.DroppedItems)
	assert.Equal(t, []uint32{20, 40}, urm.Items.Names)
	// users 3 and 5 only rated dropped items
	assert.Equal(t, []uint32{1, 2, 4}, urm.Users.Names)
	assert.Equal(t, 3, urm.Matrix.Nnz())
	assert.Equal(t, 3, urm.Matrix.NumRows)
	assert.Equal(t, 2, urm.Matrix.NumCols)
	assert.NoError(t, urm.Matrix.Validate())

	// ties are broken by the higher raw id
	urm, err = Build(newInteractions([3]float32{1, 1, 1}, [3]float32{1, 2, 1}, [3]float32{1, 3, 1}), BuildOptions{RemoveTopPop: 0.4})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, urm.DroppedItems)
	assert.Equal(t, []uint32{1, 2}, urm.Items.Names)

	// a fraction too small to drop anything
	urm, err = Build(in, BuildOptions{RemoveTopPop: 0.1})
	require.NoError(t, err)
	assert.Empty(t, urm.DroppedItems)
	assert.Equal(t, 4, urm.Items.Len())
}

func TestBuild_InvalidOptions(t *testing.T) {
	in := newInteractions([3]float32{1, 10, 5})
	for _, fraction := range []float64{-0.1, 1, 1.5} {
		_, err := Build(in, BuildOptions{RemoveTopPop: fraction})
		assert.True(t, errors.Is(err, errors.NotValid), fraction)
	}
	_, err := Build(in, BuildOptions{Duplicates: "first"})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Build(nil, BuildOptions{})
	assert.True(t, errors.Is(err, ErrMissingState))
}

func TestBuild_Duplicates(t *testing.T) {
	in := newInteractions([3]float32{1, 10, 5}, [3]float32{1, 10, 3}, [3]float32{2, 10, 1})

	urm, err := Build(in, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, urm.Matrix.Nnz())
	value, ok := urm.Matrix.ToCSR().Get(0, 0)
	assert.True(t, ok)
	assert.Equal(t, float32(8), value)

	urm, err = Build(in, BuildOptions{Duplicates: sparse.DuplicateSum})
	require.NoError(t, err)
	assert.Equal(t, []float32{8, 1}, urm.Matrix.Data)

	urm, err = Build(in, BuildOptions{Duplicates: sparse.DuplicateLast})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, urm.Matrix.Data)

	_, err = Build(in, BuildOptions{Duplicates: sparse.DuplicateReject})
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}

func TestBuild_Empty(t *testing.T) {
	urm, err := Build(&Interactions{}, BuildOptions{RemoveTopPop: 0.5})
	require.NoError(t, err)
	assert.Zero(t, urm.Matrix.NumRows)
	assert.Zero(t, urm.Matrix.NumCols)
	assert.Zero(t, urm.Matrix.Nnz())
}

func TestIndex(t *testing.T) {
	idx := NewIndex([]uint32{30, 10, 30, 20})
	assert.Equal(t, []uint32{10, 20, 30}, idx.Names)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, int32(1), idx.ToNumber(20))
	assert.Equal(t, NotId, idx.ToNumber(5))
	assert.Equal(t, uint32(30), idx.ToName(2))

	buf := bytes.NewBuffer(nil)
	require.NoError(t, idx.Marshal(buf))
	copied, err := UnmarshalIndex(buf)
	require.NoError(t, err)
	assert.Equal(t, idx, copied)

	var nilIndex *Index
	assert.Zero(t, nilIndex.Len())
}
