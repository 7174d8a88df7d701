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
	"github.com/juju/errors"
)

// DuplicatePolicy decides what happens to repeated (row, col) pairs in a COO matrix.
type DuplicatePolicy string

const (
	// DuplicateKeep keeps repeated pairs as separate entries. They are summed
	// once the matrix is converted to CSR.
	DuplicateKeep DuplicatePolicy = "keep"
	// DuplicateSum merges repeated pairs into one entry holding the sum.
	DuplicateSum DuplicatePolicy = "sum"
	// DuplicateLast merges repeated pairs into one entry holding the last value.
	DuplicateLast DuplicatePolicy = "last"
	// DuplicateReject fails on the first repeated pair.
	DuplicateReject DuplicatePolicy = "reject"
)

// DuplicatePolicies lists every valid policy.
var DuplicatePolicies = []DuplicatePolicy{DuplicateKeep, DuplicateSum, DuplicateLast, DuplicateReject}

// COO is a sparse matrix in coordinate form. Entries are unordered and may repeat.
type COO struct {
	NumRows int
	NumCols int
	Rows    []int32
	Cols    []int32
	Data    []float32
}

// NewCOO creates an empty COO matrix with room for capacity entries.
func NewCOO(numRows, numCols, capacity int) *COO {
	return &COO{
		NumRows: numRows,
		NumCols: numCols,
		Rows:    make([]int32, 0, capacity),
		Cols:    make([]int32, 0, capacity),
		Data:    make([]float32, 0, capacity),
	}
}

// Append adds an entry.
func (m *COO) Append(row, col int32, value float32) {
	m.Rows = append(m.Rows, row)
	m.Cols = append(m.Cols, col)
	m.Data = append(m.Data, value)
}

// Nnz returns the number of stored entries, explicit zeros and duplicates included.
func (m *COO) Nnz() int {
	return len(m.Data)
}

// Shape returns (rows, columns).
func (m *COO) Shape() (int, int) {
	return m.NumRows, m.NumCols
}

// Validate checks that arrays are aligned and indices fall inside the shape.
func (m *COO) Validate() error {
	if len(m.Rows) != len(m.Data) || len(m.Cols) != len(m.Data) {
		return errors.NotValidf("coo arrays of length %d, %d, %d", len(m.Rows), len(m.Cols), len(m.Data))
	}
	for i := range m.Data {
		if m.Rows[i] < 0 || int(m.Rows[i]) >= m.NumRows || m.Cols[i] < 0 || int(m.Cols[i]) >= m.NumCols {
			return errors.NotValidf("entry (%d, %d) in matrix of shape (%d, %d)",
				m.Rows[i], m.Cols[i], m.NumRows, m.NumCols)
		}
	}
	return nil
}

// Filter returns a new matrix of the same shape holding the entries for which keep returns true.
func (m *COO) Filter(keep func(row, col int32, value float32) bool) *COO {
	out := NewCOO(m.NumRows, m.NumCols, 0)
	for i := range m.Data {
		if keep(m.Rows[i], m.Cols[i], m.Data[i]) {
			out.Append(m.Rows[i], m.Cols[i], m.Data[i])
		}
	}
	return out
}

// Partition distributes entries into n matrices of the same shape; entry i goes to labels[i].
func (m *COO) Partition(labels []int, n int) []*COO {
	counts := make([]int, n)
	for _, label := range labels {
		counts[label]++
	}
	parts := make([]*COO, n)
	for i := range parts {
		parts[i] = NewCOO(m.NumRows, m.NumCols, counts[i])
	}
	for i, label := range labels {
		parts[label].Append(m.Rows[i], m.Cols[i], m.Data[i])
	}
	return parts
}

// Coalesce applies a duplicate policy and returns a new matrix. Merged entries
// stay at the position of the first occurrence of their pair.
func (m *COO) Coalesce(policy DuplicatePolicy) (*COO, error) {
	if policy == "" {
		policy = DuplicateKeep
	}
	switch policy {
	case DuplicateKeep:
		return m.Clone(), nil
	case DuplicateSum, DuplicateLast, DuplicateReject:
	default:
		return nil, errors.NotValidf("duplicate policy %q", policy)
	}
	type pair struct{ row, col int32 }
	positions := make(map[pair]int, len(m.Data))
	out := NewCOO(m.NumRows, m.NumCols, len(m.Data))
	for i := range m.Data {
		key := pair{m.Rows[i], m.Cols[i]}
		if pos, exist := positions[key]; exist {
			switch policy {
			case DuplicateSum:
				out.Data[pos] += m.Data[i]
			case DuplicateLast:
				out.Data[pos] = m.Data[i]
			case DuplicateReject:
				return nil, errors.AlreadyExistsf("entry (%d, %d)", key.row, key.col)
			}
			continue
		}
		positions[key] = out.Nnz()
		out.Append(key.row, key.col, m.Data[i])
	}
	return out, nil
}

// Clone makes a deep copy.
func (m *COO) Clone() *COO {
	return &COO{
		NumRows: m.NumRows,
		NumCols: m.NumCols,
		Rows:    append([]int32(nil), m.Rows...),
		Cols:    append([]int32(nil), m.Cols...),
		Data:    append([]float32(nil), m.Data...),
	}
}

// Transpose swaps rows and columns.
func (m *COO) Transpose() *COO {
	t := m.Clone()
	t.NumRows, t.NumCols = m.NumCols, m.NumRows
	t.Rows, t.Cols = t.Cols, t.Rows
	return t
}

// RowCounts returns the number of stored entries in every row.
func (m *COO) RowCounts() []int {
	counts := make([]int, m.NumRows)
	for _, row := range m.Rows {
		counts[row]++
	}
	return counts
}

// ToCSR converts to compressed-row form. Duplicated pairs are summed and
// column indices are sorted within each row. Explicit zeros are kept.
func (m *COO) ToCSR() *CSR {
	indPtr := make([]int32, m.NumRows+1)
	for _, row := range m.Rows {
		indPtr[row+1]++
	}
	for i := 0; i < m.NumRows; i++ {
		indPtr[i+1] += indPtr[i]
	}
	indices := make([]int32, len(m.Data))
	data := make([]float32, len(m.Data))
	next := append([]int32(nil), indPtr[:m.NumRows]...)
	for i := range m.Data {
		row := m.Rows[i]
		dest := next[row]
		indices[dest] = m.Cols[i]
		data[dest] = m.Data[i]
		next[row]++
	}
	csr := &CSR{
		NumRows: m.NumRows,
		NumCols: m.NumCols,
		IndPtr:  indPtr,
		Indices: indices,
		Data:    data,
	}
	csr.sortIndices()
	csr.sumDuplicates()
	return csr
}
