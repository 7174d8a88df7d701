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
	"sort"

	"github.com/juju/errors"
)

// CSR is a sparse matrix in compressed-row form. The entries of row i are
// Indices[IndPtr[i]:IndPtr[i+1]] and Data[IndPtr[i]:IndPtr[i+1]].
type CSR struct {
	NumRows int
	NumCols int
	IndPtr  []int32
	Indices []int32
	Data    []float32
}

// NewCSR creates an empty CSR matrix.
func NewCSR(numRows, numCols int) *CSR {
	return &CSR{
		NumRows: numRows,
		NumCols: numCols,
		IndPtr:  make([]int32, numRows+1),
		Indices: []int32{},
		Data:    []float32{},
	}
}

// Nnz returns the number of stored entries.
func (m *CSR) Nnz() int {
	return len(m.Data)
}

// Shape returns (rows, columns).
func (m *CSR) Shape() (int, int) {
	return m.NumRows, m.NumCols
}

// Row returns the column indices and values of row i. The slices alias the matrix.
func (m *CSR) Row(i int) ([]int32, []float32) {
	begin, end := m.IndPtr[i], m.IndPtr[i+1]
	return m.Indices[begin:end], m.Data[begin:end]
}

// RowNnz returns the number of entries in row i.
func (m *CSR) RowNnz(i int) int {
	return int(m.IndPtr[i+1] - m.IndPtr[i])
}

// ColCounts returns the number of stored entries in every column.
func (m *CSR) ColCounts() []int {
	counts := make([]int, m.NumCols)
	for _, col := range m.Indices {
		counts[col]++
	}
	return counts
}

// Get returns the value at (row, col) and whether it is stored.
func (m *CSR) Get(row, col int) (float32, bool) {
	indices, data := m.Row(row)
	pos := sort.Search(len(indices), func(i int) bool { return indices[i] >= int32(col) })
	if pos < len(indices) && indices[pos] == int32(col) {
		return data[pos], true
	}
	return 0, false
}

// ForEach visits entries in row-major order.
func (m *CSR) ForEach(f func(row, col int32, value float32)) {
	for i := 0; i < m.NumRows; i++ {
		for j := m.IndPtr[i]; j < m.IndPtr[i+1]; j++ {
			f(int32(i), m.Indices[j], m.Data[j])
		}
	}
}

// ToCOO converts to coordinate form in row-major order.
func (m *CSR) ToCOO() *COO {
	coo := NewCOO(m.NumRows, m.NumCols, m.Nnz())
	m.ForEach(coo.Append)
	return coo
}

// Transpose returns the transposed matrix in CSR form.
func (m *CSR) Transpose() *CSR {
	return m.ToCOO().Transpose().ToCSR()
}

// Validate checks the structural invariants of the matrix.
func (m *CSR) Validate() error {
	if len(m.IndPtr) != m.NumRows+1 {
		return errors.NotValidf("indptr of length %d for %d rows", len(m.IndPtr), m.NumRows)
	}
	if m.IndPtr[0] != 0 {
		return errors.NotValidf("indptr starting at %d", m.IndPtr[0])
	}
	if len(m.Indices) != len(m.Data) || int(m.IndPtr[m.NumRows]) != len(m.Data) {
		return errors.NotValidf("csr arrays of length %d, %d with indptr end %d",
			len(m.Indices), len(m.Data), m.IndPtr[m.NumRows])
	}
	for i := 0; i < m.NumRows; i++ {
		if m.IndPtr[i] > m.IndPtr[i+1] {
			return errors.NotValidf("decreasing indptr at row %d", i)
		}
	}
	for _, col := range m.Indices {
		if col < 0 || int(col) >= m.NumCols {
			return errors.NotValidf("column %d in matrix of %d columns", col, m.NumCols)
		}
	}
	return nil
}

func (m *CSR) sortIndices() {
	for i := 0; i < m.NumRows; i++ {
		sort.Sort(&rowSorter{
			indices: m.Indices[m.IndPtr[i]:m.IndPtr[i+1]],
			data:    m.Data[m.IndPtr[i]:m.IndPtr[i+1]],
		})
	}
}

// sumDuplicates merges adjacent equal columns in place. Indices must be sorted.
func (m *CSR) sumDuplicates() {
	var nnz int32
	begin := int32(0)
	for i := 0; i < m.NumRows; i++ {
		end := m.IndPtr[i+1]
		for j := begin; j < end; j++ {
			if j > begin && m.Indices[j] == m.Indices[j-1] {
				m.Data[nnz-1] += m.Data[j]
				continue
			}
			m.Indices[nnz] = m.Indices[j]
			m.Data[nnz] = m.Data[j]
			nnz++
		}
		begin = end
		m.IndPtr[i+1] = nnz
	}
	m.Indices = m.Indices[:nnz]
	m.Data = m.Data[:nnz]
}

type rowSorter struct {
	indices []int32
	data    []float32
}

func (s *rowSorter) Len() int {
	return len(s.indices)
}

func (s *rowSorter) Less(i, j int) bool {
	return s.indices[i] < s.indices[j]
}

func (s *rowSorter) Swap(i, j int) {
	s.indices[i], s.indices[j] = s.indices[j], s.indices[i]
	s.data[i], s.data[j] = s.data[j], s.data[i]
}
