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
	"os"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/config"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// EmulatorEndpoint points the GCS client at a local emulator.
const EmulatorEndpoint = "GCS_EMULATOR_ENDPOINT"

type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(cfg config.GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if endpoint := os.Getenv(EmulatorEndpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &GCS{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (g *GCS) object(name string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(path.Join(g.prefix, name))
}

func (g *GCS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := g.object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, notFound(err, name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return r, nil
}

func (g *GCS) Create(ctx context.Context, name string) (Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	return &gcsWriter{Writer: g.object(name).NewWriter(ctx), cancel: cancel}, nil
}

type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	if err := w.Writer.Close(); err != nil {
		log.Logger().Error("failed to upload file to GCS", zap.String("file", w.Writer.Name), zap.Error(err))
		return errors.Trace(err)
	}
	return nil
}

// Abort cancels the upload so the object is never created.
func (w *gcsWriter) Abort(err error) {
	w.cancel()
	_ = w.Writer.Close()
	log.Logger().Debug("abort uploading file to GCS", zap.String("file", w.Writer.Name), zap.Error(err))
}

func (g *GCS) List(ctx context.Context) ([]string, error) {
	var prefix string
	if g.prefix != "" {
		prefix = g.prefix + "/"
	}
	var names []string
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{
		Prefix: prefix,
	})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		names = append(names, strings.TrimPrefix(attrs.Name, prefix))
	}
	sort.Strings(names)
	return names, nil
}

func (g *GCS) Remove(ctx context.Context, name string) error {
	err := g.object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return notFound(err, name)
	}
	return errors.Trace(err)
}
