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

package artifact

import (
	"context"
	"io"

	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/gorse-io/urm/config"
	"github.com/gorse-io/urm/dataset"
	"github.com/gorse-io/urm/storage/blob"
	"github.com/juju/errors"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Matrix names.
const (
	URM           = "URM"
	URMTrain      = "URM_train"
	URMTest       = "URM_test"
	URMValidation = "URM_validation"
)

// Artifact file names.
const (
	UserIndexFile = "row_to_user.idx"
	ItemIndexFile = "col_to_item.idx"
	RecordFile    = "config.json"
	matrixExt     = ".mat.gz"
)

// SplitNames lists the matrices of a train/test/validation split.
var SplitNames = []string{URMTrain, URMTest, URMValidation}

// MatrixFile returns the file name of a matrix artifact.
func MatrixFile(name string) string {
	return name + matrixExt
}

// Store saves and loads build artifacts on a blob store. Matrices are gzip
// compressed. The build record is plain JSON.
type Store struct {
	blob blob.Store
}

func NewStore(b blob.Store) *Store {
	return &Store{blob: b}
}

// Exists reports whether all named files are present.
func (s *Store) Exists(ctx context.Context, files ...string) (bool, error) {
	names, err := s.blob.List(ctx)
	if err != nil {
		return false, errors.Trace(err)
	}
	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[name] = struct{}{}
	}
	for _, file := range files {
		if _, ok := present[file]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, file string, compress bool, encode func(w io.Writer) error) error {
	w, err := s.blob.Create(ctx, file)
	if err != nil {
		return errors.Annotatef(err, "failed to create %s", file)
	}
	var (
		dst io.Writer = w
		gz  *gzip.Writer
	)
	if compress {
		gz = gzip.NewWriter(w)
		dst = gz
	}
	if err = encode(dst); err == nil && gz != nil {
		err = gz.Close()
	}
	if err != nil {
		w.Abort(err)
		return errors.Annotatef(err, "failed to save %s", file)
	}
	if err = w.Close(); err != nil {
		return errors.Annotatef(err, "failed to save %s", file)
	}
	log.Logger().Debug("save artifact", zap.String("file", file))
	return nil
}

func (s *Store) load(ctx context.Context, file string, compress bool, decode func(r io.Reader) error) error {
	r, err := s.blob.Open(ctx, file)
	if err != nil {
		return errors.Trace(err)
	}
	defer r.Close()
	var src io.Reader = r
	if compress {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return errors.NewNotValid(err, "corrupt artifact "+file)
		}
		defer gz.Close()
		src = gz
	}
	if err = decode(src); err != nil {
		return errors.Annotatef(err, "failed to load %s", file)
	}
	log.Logger().Debug("load artifact", zap.String("file", file))
	return nil
}

// SaveCOO saves a matrix in coordinate format.
func (s *Store) SaveCOO(ctx context.Context, name string, m *sparse.COO) error {
	return s.save(ctx, MatrixFile(name), true, func(w io.Writer) error {
		return sparse.WriteCOO(w, m)
	})
}

// LoadCOO loads a matrix saved by SaveCOO.
func (s *Store) LoadCOO(ctx context.Context, name string) (m *sparse.COO, err error) {
	err = s.load(ctx, MatrixFile(name), true, func(r io.Reader) error {
		m, err = sparse.ReadCOO(r)
		return err
	})
	return
}

// SaveCSR saves a matrix in compressed sparse row format.
func (s *Store) SaveCSR(ctx context.Context, name string, m *sparse.CSR) error {
	return s.save(ctx, MatrixFile(name), true, func(w io.Writer) error {
		return sparse.WriteCSR(w, m)
	})
}

// LoadCSR loads a matrix saved by SaveCSR.
func (s *Store) LoadCSR(ctx context.Context, name string) (m *sparse.CSR, err error) {
	err = s.load(ctx, MatrixFile(name), true, func(r io.Reader) error {
		m, err = sparse.ReadCSR(r)
		return err
	})
	return
}

// SaveIndex saves the raw ids of an index in dense order.
func (s *Store) SaveIndex(ctx context.Context, file string, idx *dataset.Index) error {
	return s.save(ctx, file, true, idx.Marshal)
}

func (s *Store) LoadIndex(ctx context.Context, file string) (idx *dataset.Index, err error) {
	err = s.load(ctx, file, true, func(r io.Reader) error {
		idx, err = dataset.UnmarshalIndex(r)
		return err
	})
	return
}

// SaveRecord saves the build record.
func (s *Store) SaveRecord(ctx context.Context, record config.BuildRecord) error {
	return s.save(ctx, RecordFile, false, func(w io.Writer) error {
		return config.WriteRecord(w, record)
	})
}

// LoadRecord loads the build record. A missing record satisfies
// errors.Is(err, errors.NotFound).
func (s *Store) LoadRecord(ctx context.Context) (record config.BuildRecord, err error) {
	err = s.load(ctx, RecordFile, false, func(r io.Reader) error {
		record, err = config.ReadRecord(r)
		return err
	})
	return
}

// RemoveRecord invalidates the cached artifacts. It is not an error if there
// is no record.
func (s *Store) RemoveRecord(ctx context.Context) error {
	if err := s.blob.Remove(ctx, RecordFile); err != nil && !errors.Is(err, errors.NotFound) {
		return errors.Trace(err)
	}
	return nil
}

// SaveSplits saves train, test and validation matrices.
func (s *Store) SaveSplits(ctx context.Context, splits *dataset.Splits) error {
	for i, m := range []*sparse.CSR{splits.Train, splits.Test, splits.Validation} {
		if err := s.SaveCSR(ctx, SplitNames[i], m); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadSplits loads train, test and validation matrices.
func (s *Store) LoadSplits(ctx context.Context) (*dataset.Splits, error) {
	var matrices [3]*sparse.CSR
	for i, name := range SplitNames {
		m, err := s.LoadCSR(ctx, name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		matrices[i] = m
	}
	return &dataset.Splits{
		Train:      matrices[dataset.TrainPart],
		Test:       matrices[dataset.TestPart],
		Validation: matrices[dataset.ValidationPart],
	}, nil
}
