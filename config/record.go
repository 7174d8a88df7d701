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

package config

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/juju/errors"
)

// BuildRecord holds every parameter that changes the content of a build. It
// is saved next to the artifacts, and cached artifacts are only reused when
// the stored record equals the requested one.
type BuildRecord struct {
	Columns      ColumnsConfig `json:"use_cols"`
	SplitRatio   [3]float64    `json:"split_ratio"`
	StratifiedOn string        `json:"stratified_on"`
	Header       bool          `json:"header"`
	Delimiter    string        `json:"delim"`
	Implicit     bool          `json:"implicit"`
	RemoveTopPop float64       `json:"remove_top_pop"`
	Seed         int64         `json:"seed"`
	MinRatings   int           `json:"min_ratings"`
	Duplicates   string        `json:"duplicates"`
}

// Record returns the build record of the configuration.
func (config *Config) Record() BuildRecord {
	var ratio [3]float64
	copy(ratio[:], config.Split.Ratio)
	return BuildRecord{
		Columns:      config.Reader.Columns,
		SplitRatio:   ratio,
		StratifiedOn: config.Split.StratifiedOn,
		Header:       config.Reader.Header,
		Delimiter:    config.Reader.Delimiter,
		Implicit:     config.Implicit(),
		RemoveTopPop: config.Build.RemoveTopPop,
		Seed:         config.Split.Seed,
		MinRatings:   config.Split.MinRatings,
		Duplicates:   config.Build.Duplicates,
	}
}

// WriteRecord encodes a record as JSON.
func WriteRecord(w io.Writer, record BuildRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Trace(encoder.Encode(record))
}

// ReadRecord decodes a record written by WriteRecord.
func ReadRecord(r io.Reader) (BuildRecord, error) {
	var record BuildRecord
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&record); err != nil {
		return BuildRecord{}, errors.Annotate(err, "failed to decode build record")
	}
	return record, nil
}
