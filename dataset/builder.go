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
	"slices"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type BuildOptions struct {
	// Implicit replaces every rating by one.
	Implicit bool
	// RemoveTopPop is the fraction of most popular items to drop, in [0, 1).
	RemoveTopPop float64
	Duplicates   sparse.DuplicatePolicy
}

// URM is the user rating matrix together with the maps from its rows and
// columns back to raw IDs.
type URM struct {
	Matrix *sparse.COO
	Users  *Index
	Items  *Index
	// DroppedItems holds the raw IDs removed by the popularity filter.
	DroppedItems []uint32
}

// Build converts interactions into a re-indexed sparse matrix. The input is
// not modified.
func Build(in *Interactions, opts BuildOptions) (*URM, error) {
	if in == nil {
		return nil, missingState("no interactions to build from")
	}
	if opts.RemoveTopPop < 0 || opts.RemoveTopPop >= 1 || math.IsNaN(opts.RemoveTopPop) {
		return nil, errors.NotValidf("remove_top_pop %v outside [0, 1)", opts.RemoveTopPop)
	}

	rows, cols, data := in.Rows, in.Cols, in.Data
	if opts.Implicit {
		data = lo.Map(data, func(float32, int) float32 { return 1 })
	}

	var dropped []uint32
	if opts.RemoveTopPop > 0 {
		dropped = topPopular(cols, opts.RemoveTopPop)
		if len(dropped) > 0 {
			droppedSet := mapset.NewThreadUnsafeSet(dropped...)
			keep := make([]bool, len(cols))
			for i, col := range cols {
				keep[i] = !droppedSet.Contains(col)
			}
			rows = lo.Filter(rows, func(_ uint32, i int) bool { return keep[i] })
			data = lo.Filter(data, func(_ float32, i int) bool { return keep[i] })
			cols = lo.Filter(cols, func(_ uint32, i int) bool { return keep[i] })
		}
		log.Logger().Info("remove popular items",
			zap.Float64("fraction", opts.RemoveTopPop), zap.Int("n_dropped", len(dropped)))
	}

	users := NewIndex(rows)
	items := NewIndex(cols)
	m := sparse.NewCOO(users.Len(), items.Len(), len(data))
	for i := range data {
		m.Append(users.ToNumber(rows[i]), items.ToNumber(cols[i]), data[i])
	}
	m, err := m.Coalesce(opts.Duplicates)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("build user rating matrix",
		zap.Int("n_users", users.Len()), zap.Int("n_items", items.Len()), zap.Int("nnz", m.Nnz()))
	return &URM{Matrix: m, Users: users, Items: items, DroppedItems: dropped}, nil
}

// topPopular returns the floor(fraction * n) most frequent items. Among equally
// frequent items the one with the higher raw ID goes first.
func topPopular(cols []uint32, fraction float64) []uint32 {
	counts := lo.CountValues(cols)
	items := lo.Keys(counts)
	slices.Sort(items)
	sort.SliceStable(items, func(i, j int) bool {
		return counts[items[i]] < counts[items[j]]
	})
	slices.Reverse(items)
	k := int(math.Floor(float64(len(items)) * fraction))
	return items[:k]
}
