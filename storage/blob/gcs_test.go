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
	"testing"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/gorse-io/urm/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCS(t *testing.T) {
	ctx := context.Background()
	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		Scheme:     "http",
		Port:       5050,
		PublicHost: "localhost:5050",
	})
	require.NoError(t, err)
	defer server.Stop()
	t.Setenv(EmulatorEndpoint, "http://localhost:5050/storage/v1/")

	// create client
	client, err := NewGCS(config.GCSConfig{
		Bucket: "urm-test",
		Prefix: "blob",
	})
	require.NoError(t, err)

	// create bucket if not exists
	err = client.client.Bucket("urm-test").Create(ctx, "test-project", nil)
	if err != nil {
		assert.ErrorContains(t, err, "A Cloud Storage bucket named 'urm-test' already exists.")
	}

	// create file
	w, err := client.Create(ctx, "ml-100k/URM.npz")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	// aborted file is never created
	w, err = client.Create(ctx, "aborted")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	w.Abort(errors.New("encode failed"))

	// list files
	names, err := client.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"ml-100k/URM.npz"}, names)

	// read file
	r, err := client.Open(ctx, "ml-100k/URM.npz")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoError(t, r.Close())

	// remove file
	assert.NoError(t, client.Remove(ctx, "ml-100k/URM.npz"))
	_, err = client.Open(ctx, "ml-100k/URM.npz")
	assert.True(t, errors.Is(err, errors.NotFound))

	// list files again
	names, err = client.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, names)
}
