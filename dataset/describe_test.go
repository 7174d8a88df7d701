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

	"github.com/gorse-io/urm/common/sparse"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	m := sparse.NewCOO(3, 3, 3)
	m.Append(0, 0, 5)
	m.Append(0, 1, 3)
	m.Append(1, 1, 4)
	stats, err := Describe(m.ToCSR())
	require.NoError(t, err)
	assert.Equal(t, &Stats{
		Users:            3,
		Items:            3,
		Ratings:          3,
		Density:          1.0 / 3.0,
		ColdStartUsers:   1,
		MinItemsPerUser:  0,
		MaxItemsPerUser:  2,
		MeanItemsPerUser: 1,
		MinUsersPerItem:  0,
		MaxUsersPerItem:  2,
		MeanUsersPerItem: 1,
	}, stats)
}

func TestDescribe_Empty(t *testing.T) {
	stats, err := Describe(sparse.NewCSR(0, 0))
	require.NoError(t, err)
	assert.Zero(t, stats.Density)
	assert.Zero(t, stats.ColdStartUsers)

	_, err = Describe(nil)
	assert.True(t, errors.Is(err, ErrMissingState))
}

func TestLocateBuiltIn(t *testing.T) {
	b, err := LocateBuiltIn("ml-1m")
	require.NoError(t, err)
	assert.Equal(t, "ml-1m", b.Name)
	assert.Equal(t, "ml-1m/ratings.dat", b.Member)
	assert.Equal(t, ParseOptions{Columns: DefaultColumns, Delimiter: "::"}, b.ParseOptions())

	_, err = LocateBuiltIn("netflix")
	assert.True(t, errors.Is(err, errors.NotFound))

	names := BuiltInNames()
	assert.Equal(t, []string{"epinions", "filmtrust", "ml-100k", "ml-10m", "ml-1m", "ml-20m"}, names)
}
