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
	"slices"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// BuiltIn describes where a public dataset lives and how its ratings file is laid out.
type BuiltIn struct {
	Name      string
	URL       string
	Member    string
	Delimiter string
	Header    bool
	Columns   Columns
}

// ParseOptions returns the layout of the ratings file.
func (b BuiltIn) ParseOptions() ParseOptions {
	return ParseOptions{Columns: b.Columns, Delimiter: b.Delimiter, Header: b.Header}
}

var builtInDataSets = map[string]BuiltIn{
	// MovieLens: https://grouplens.org/datasets/movielens/
	"ml-100k": {
		URL:       "https://files.grouplens.org/datasets/movielens/ml-100k.zip",
		Member:    "ml-100k/u.data",
		Delimiter: "\t",
		Columns:   DefaultColumns,
	},
	"ml-1m": {
		URL:       "https://files.grouplens.org/datasets/movielens/ml-1m.zip",
		Member:    "ml-1m/ratings.dat",
		Delimiter: "::",
		Columns:   DefaultColumns,
	},
	"ml-10m": {
		URL:       "https://files.grouplens.org/datasets/movielens/ml-10m.zip",
		Member:    "ml-10M100K/ratings.dat",
		Delimiter: "::",
		Columns:   DefaultColumns,
	},
	"ml-20m": {
		URL:       "https://files.grouplens.org/datasets/movielens/ml-20m.zip",
		Member:    "ml-20m/ratings.csv",
		Delimiter: ",",
		Header:    true,
		Columns:   DefaultColumns,
	},
	// FilmTrust: https://guoguibing.github.io/librec/datasets.html
	"filmtrust": {
		URL:       "https://cdn.gorse.io/datasets/filmtrust.zip",
		Member:    "filmtrust/ratings.txt",
		Delimiter: " ",
		Columns:   DefaultColumns,
	},
	// Epinions: http://www.trustlet.org/epinions.html
	"epinions": {
		URL:       "https://cdn.gorse.io/datasets/epinions.zip",
		Member:    "epinions/ratings_data.txt",
		Delimiter: " ",
		Header:    true,
		Columns:   DefaultColumns,
	},
}

// LocateBuiltIn looks up a built-in dataset by name.
func LocateBuiltIn(name string) (BuiltIn, error) {
	b, exist := builtInDataSets[name]
	if !exist {
		return BuiltIn{}, errors.NotFoundf("built-in dataset %s", name)
	}
	b.Name = name
	return b, nil
}

// BuiltInNames lists the built-in datasets in alphabetical order.
func BuiltInNames() []string {
	names := lo.Keys(builtInDataSets)
	slices.Sort(names)
	return names
}
