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

package sparse

import (
	"bytes"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCOO() *COO {
	m := NewCOO(3, 4, 6)
	m.Append(2, 1, 1)
	m.Append(0, 3, 2)
	m.Append(0, 0, 0)
	m.Append(2, 1, 4)
	m.Append(1, 2, 5)
	m.Append(0, 3, 1)
	return m
}

func TestCOO_ToCSR(t *testing.T) {
	csr := newTestCOO().ToCSR()
	assert.NoError(t, csr.Validate())
	assert.Equal(t, []int32{0, 2, 3, 4}, csr.IndPtr)
	assert.Equal(t, []int32{0, 3, 2, 1}, csr.Indices)
	// explicit zero is kept and duplicates are summed
	assert.Equal(t, []float32{0, 3, 5, 5}, csr.Data)
	assert.Equal(t, 4, csr.Nnz())

	value, ok := csr.Get(0, 0)
	assert.True(t, ok)
	assert.Zero(t, value)
	value, ok = csr.Get(2, 1)
	assert.True(t, ok)
	assert.Equal(t, float32(5), value)
	_, ok = csr.Get(1, 1)
	assert.False(t, ok)
}

func TestCOO_EmptyToCSR(t *testing.T) {
	csr := NewCOO(2, 2, 0).ToCSR()
	assert.Equal(t, []int32{0, 0, 0}, csr.IndPtr)
	assert.Zero(t, csr.Nnz())
	assert.Zero(t, csr.RowNnz(1))
}

func TestCOO_Coalesce(t *testing.T) {
	m := newTestCOO()

	kept, err := m.Coalesce(DuplicateKeep)
	assert.NoError(t, err)
	assert.Equal(t, 6, kept.Nnz())

	summed, err := m.Coalesce(DuplicateSum)
	assert.NoError(t, err)
	assert.Equal(t, []int32{2, 0, 0, 1}, summed.Rows)
	assert.Equal(t, []int32{1, 3, 0, 2}, summed.Cols)
	assert.Equal(t, []float32{5, 3, 0, 5}, summed.Data)

	last, err := m.Coalesce(DuplicateLast)
	assert.NoError(t, err)
	assert.Equal(t, []float32{4, 1, 0, 5}, last.Data)

	_, err = m.Coalesce(DuplicateReject)
	assert.True(t, errors.Is(err, errors.AlreadyExists))

	_, err = m.Coalesce("unknown")
	assert.True(t, errors.Is(err, errors.NotValid))

	// the receiver is not modified
	assert.Equal(t, 6, m.Nnz())
}

func TestCOO_Partition(t *testing.T) {
	m := newTestCOO()
	parts := m.Partition([]int{0, 1, 2, 0, 1, 2}, 3)
	require.Len(t, parts, 3)
	total := 0
	for _, part := range parts {
		assert.Equal(t, 3, part.NumRows)
		assert.Equal(t, 4, part.NumCols)
		total += part.Nnz()
	}
	assert.Equal(t, m.Nnz(), total)
	assert.Equal(t, []int32{2, 2}, parts[0].Rows)
	assert.Equal(t, []float32{1, 4}, parts[0].Data)
}

func TestCOO_Filter(t *testing.T) {
	m := newTestCOO()
	filtered := m.Filter(func(row, col int32, value float32) bool {
		return row == 0
	})
	assert.Equal(t, 3, filtered.Nnz())
	assert.Equal(t, []int{3, 1, 2}, m.RowCounts())
}

func TestCOO_Transpose(t *testing.T) {
	m := newTestCOO()
	tr := m.Transpose()
	assert.Equal(t, 4, tr.NumRows)
	assert.Equal(t, 3, tr.NumCols)
	assert.Equal(t, m.Cols, tr.Rows)
	assert.Equal(t, m.Rows, tr.Cols)
	assert.NoError(t, tr.Validate())

	csr := m.ToCSR().Transpose()
	assert.Equal(t, []int{1, 1, 1, 1}, []int{csr.RowNnz(0), csr.RowNnz(1), csr.RowNnz(2), csr.RowNnz(3)})
	assert.Equal(t, []int{2, 1, 1}, csr.ColCounts())
}

func TestCOO_Validate(t *testing.T) {
	m := NewCOO(1, 1, 1)
	m.Append(1, 0, 1)
	assert.True(t, errors.Is(m.Validate(), errors.NotValid))
	m = NewCOO(1, 1, 1)
	m.Rows = append(m.Rows, 0)
	assert.True(t, errors.Is(m.Validate(), errors.NotValid))
}

func TestCSR_Validate(t *testing.T) {
	assert.NoError(t, newTestCOO().ToCSR().Validate())
	m := &CSR{NumRows: 1, NumCols: 3, IndPtr: []int32{-1, 2}, Indices: []int32{0, 1}, Data: []float32{1, 1}}
	assert.True(t, errors.Is(m.Validate(), errors.NotValid))
	m = &CSR{NumRows: 2, NumCols: 3, IndPtr: []int32{0, 2, 1}, Indices: []int32{0}, Data: []float32{1}}
	assert.True(t, errors.Is(m.Validate(), errors.NotValid))
	m = &CSR{NumRows: 1, NumCols: 3, IndPtr: []int32{0, 1}, Indices: []int32{3}, Data: []float32{1}}
	assert.True(t, errors.Is(m.Validate(), errors.NotValid))

	// corrupt matrices are rejected when decoded
	buf := bytes.NewBuffer(nil)
	require.NoError(t, WriteCSR(buf, &CSR{NumRows: 1, NumCols: 3, IndPtr: []int32{-1, 2}, Indices: []int32{0, 1}, Data: []float32{1, 1}}))
	_, err := ReadCSR(buf)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCSR_ToCOO(t *testing.T) {
	csr := newTestCOO().ToCSR()
	coo := csr.ToCOO()
	assert.Equal(t, []int32{0, 0, 1, 2}, coo.Rows)
	assert.Equal(t, []int32{0, 3, 2, 1}, coo.Cols)
	assert.Equal(t, csr, coo.ToCSR())
}

func TestCodec_COO(t *testing.T) {
	m := newTestCOO()
	buf := bytes.NewBuffer(nil)
	require.NoError(t, WriteCOO(buf, m))
	copied, err := ReadCOO(buf)
	require.NoError(t, err)
	assert.Equal(t, m, copied)
}

func TestCodec_CSR(t *testing.T) {
	m := newTestCOO().ToCSR()
	buf := bytes.NewBuffer(nil)
	require.NoError(t, WriteCSR(buf, m))
	copied, err := ReadCSR(buf)
	require.NoError(t, err)
	assert.Equal(t, m, copied)
}

func TestCodec_WrongHeader(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	require.NoError(t, WriteCOO(buf, newTestCOO()))
	_, err := ReadCSR(buf)
	assert.True(t, errors.Is(err, errors.NotValid))
}
