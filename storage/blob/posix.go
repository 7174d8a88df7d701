// Copyright 2025 gorse Project Authors
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

package blob

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorse-io/urm/common/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const tempPrefix = ".upload-"

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

func (p *POSIX) path(name string) string {
	return filepath.Join(p.dir, filepath.FromSlash(name))
}

// Open a file for reading.
func (p *POSIX) Open(_ context.Context, name string) (io.ReadCloser, error) {
	file, err := os.Open(p.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(err, name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create a file for writing. Data goes to a temporary file in the same
// directory, which replaces the target on Close.
func (p *POSIX) Create(_ context.Context, name string) (Writer, error) {
	fullPath := p.path(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.CreateTemp(filepath.Dir(fullPath), tempPrefix+"*")
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &posixWriter{File: file, target: fullPath}, nil
}

type posixWriter struct {
	*os.File
	target string
}

func (w *posixWriter) Close() error {
	if err := w.File.Close(); err != nil {
		_ = os.Remove(w.Name())
		return errors.Trace(err)
	}
	if err := os.Rename(w.Name(), w.target); err != nil {
		_ = os.Remove(w.Name())
		return errors.Trace(err)
	}
	return nil
}

func (w *posixWriter) Abort(err error) {
	_ = w.File.Close()
	if rmErr := os.Remove(w.Name()); rmErr != nil {
		log.Logger().Warn("failed to remove temporary file", zap.String("file", w.Name()), zap.Error(rmErr))
	}
	log.Logger().Debug("abort writing file", zap.String("file", w.target), zap.Error(err))
}

// List returns the names of all files under the root directory.
func (p *POSIX) List(_ context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(names)
	return names, nil
}

func (p *POSIX) Remove(_ context.Context, name string) error {
	err := os.Remove(p.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(err, name)
	}
	return errors.Trace(err)
}
