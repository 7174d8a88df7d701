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
	"github.com/gorse-io/urm/common/sparse"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a user rating matrix.
type Stats struct {
	Users          int
	Items          int
	Ratings        int
	Density        float64
	ColdStartUsers int

	MinItemsPerUser  int
	MaxItemsPerUser  int
	MeanItemsPerUser float64

	MinUsersPerItem  int
	MaxUsersPerItem  int
	MeanUsersPerItem float64
}

// Describe counts the entries of every row and column of m.
func Describe(m *sparse.CSR) (*Stats, error) {
	if m == nil {
		return nil, missingState("no matrix to describe")
	}
	stats := &Stats{
		Users:   m.NumRows,
		Items:   m.NumCols,
		Ratings: m.Nnz(),
	}
	if m.NumRows > 0 && m.NumCols > 0 {
		stats.Density = float64(m.Nnz()) / float64(m.NumRows) / float64(m.NumCols)
	}
	itemsPerUser := make([]float64, m.NumRows)
	for i := range itemsPerUser {
		itemsPerUser[i] = float64(m.RowNnz(i))
	}
	usersPerItem := lo.Map(m.ColCounts(), func(count int, _ int) float64 { return float64(count) })
	stats.ColdStartUsers = lo.Count(itemsPerUser, 0)
	if len(itemsPerUser) > 0 {
		stats.MinItemsPerUser = int(lo.Min(itemsPerUser))
		stats.MaxItemsPerUser = int(lo.Max(itemsPerUser))
		stats.MeanItemsPerUser = stat.Mean(itemsPerUser, nil)
	}
	if len(usersPerItem) > 0 {
		stats.MinUsersPerItem = int(lo.Min(usersPerItem))
		stats.MaxUsersPerItem = int(lo.Max(usersPerItem))
		stats.MeanUsersPerItem = stat.Mean(usersPerItem, nil)
	}
	return stats, nil
}
