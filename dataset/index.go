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
	"io"
	"slices"

	"github.com/gorse-io/urm/common/encoding"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// NotId represents an ID doesn't exist.
const NotId = int32(-1)

// Index manages the map between raw IDs and dense indices. A raw ID is a user
// ID or item ID found in the interaction file. The dense index is the row or
// column of the matrix.
type Index struct {
	Numbers map[uint32]int32 // raw ID -> dense index
	Names   []uint32         // dense index -> raw ID
}

// NewIndex creates an Index over the sorted unique values of ids.
func NewIndex(ids []uint32) *Index {
	names := lo.Uniq(ids)
	slices.Sort(names)
	return newIndexFromNames(names)
}

func newIndexFromNames(names []uint32) *Index {
	idx := &Index{
		Numbers: make(map[uint32]int32, len(names)),
		Names:   names,
	}
	for i, name := range names {
		idx.Numbers[name] = int32(i)
	}
	return idx
}

// Len returns the number of indexed IDs.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Names)
}

// ToNumber converts a raw ID to a dense index.
func (idx *Index) ToNumber(name uint32) int32 {
	if index, exist := idx.Numbers[name]; exist {
		return index
	}
	return NotId
}

// ToName converts a dense index to a raw ID.
func (idx *Index) ToName(index int32) uint32 {
	return idx.Names[index]
}

// Marshal index into byte stream.
func (idx *Index) Marshal(w io.Writer) error {
	return encoding.WriteSlice(w, idx.Names)
}

// UnmarshalIndex reads an index written by Marshal.
func UnmarshalIndex(r io.Reader) (*Index, error) {
	names, err := encoding.ReadSlice[uint32](r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	idx := newIndexFromNames(names)
	if len(idx.Numbers) != len(names) {
		return nil, errors.NotValidf("index with duplicated ids")
	}
	return idx, nil
}
