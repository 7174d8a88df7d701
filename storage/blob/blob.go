// Copyright 2024 gorse Project Authors
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

	"github.com/gorse-io/urm/config"
	"github.com/juju/errors"
)

// Store keeps named blobs. Names use forward slashes. Opening a missing blob
// returns an error satisfying errors.Is(err, errors.NotFound).
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Create(ctx context.Context, name string) (Writer, error)
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, name string) error
}

// Writer is a blob being written. Close commits the blob and reports any upload
// failure. Abort discards everything written so far.
type Writer interface {
	io.WriteCloser
	Abort(err error)
}

// Open creates the store selected by the configuration.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendPOSIX, "":
		return NewPOSIX(cfg.Dir), nil
	case config.BackendS3:
		return NewS3(cfg.S3)
	case config.BackendGCS:
		return NewGCS(cfg.GCS)
	case config.BackendAzure:
		return NewAzureBlob(cfg.Azure)
	default:
		return nil, errors.NotSupportedf("storage backend %q", cfg.Backend)
	}
}

// pipeWriter streams writes to an upload running in the background.
type pipeWriter struct {
	*io.PipeWriter
	done chan struct{}
	err  error
}

func newPipeWriter(upload func(r io.Reader) error) *pipeWriter {
	pr, pw := io.Pipe()
	w := &pipeWriter{PipeWriter: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = upload(pr)
		_ = pr.CloseWithError(w.err)
	}()
	return w
}

func (w *pipeWriter) Close() error {
	_ = w.PipeWriter.Close()
	<-w.done
	return w.err
}

func (w *pipeWriter) Abort(err error) {
	if err == nil {
		err = errors.New("upload aborted")
	}
	_ = w.PipeWriter.CloseWithError(err)
	<-w.done
}

func notFound(err error, name string) error {
	return errors.NewNotFound(err, name)
}
