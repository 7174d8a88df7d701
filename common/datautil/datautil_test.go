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

package datautil

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZip(t *testing.T, files map[string]string) []byte {
	buf := bytes.NewBuffer(nil)
	w := zip.NewWriter(buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newServer(t *testing.T, routes map[string][]byte) (*httptest.Server, *int) {
	hits := new(int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		data, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server, hits
}

func TestDownloader_Fetch(t *testing.T) {
	archive := newZip(t, map[string]string{
		"ml-100k/u.data":   "1\t2\t3\t881250949\n",
		"ml-100k/u.README": "readme",
	})
	server, hits := newServer(t, map[string][]byte{"/ml-100k.zip": archive})
	dir := t.TempDir()
	d := NewDownloader(dir)
	d.Silent = true

	path, err := d.Fetch(context.Background(), server.URL+"/ml-100k.zip", "ml-100k/u.data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ml-100k", "u.data"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\t2\t3\t881250949\n", string(data))
	assert.FileExists(t, filepath.Join(dir, "ml-100k.zip"))
	assert.NoFileExists(t, filepath.Join(dir, "ml-100k", "u.README"))

	// extracted member is reused
	_, err = d.Fetch(context.Background(), server.URL+"/ml-100k.zip", "ml-100k/u.data")
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)

	// downloaded archive is reused
	path, err = d.Fetch(context.Background(), server.URL+"/ml-100k.zip", "ml-100k/u.README")
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)
	assert.FileExists(t, path)

	// cleaned files are downloaded again
	require.NoError(t, d.Clean(server.URL+"/ml-100k.zip", "ml-100k/u.data"))
	assert.NoFileExists(t, filepath.Join(dir, "ml-100k.zip"))
	assert.NoFileExists(t, filepath.Join(dir, "ml-100k", "u.data"))
	require.NoError(t, d.Clean(server.URL+"/ml-100k.zip", "ml-100k/u.data"))
	_, err = d.Fetch(context.Background(), server.URL+"/ml-100k.zip", "ml-100k/u.data")
	require.NoError(t, err)
	assert.Equal(t, 2, *hits)
}

func TestDownloader_NotFound(t *testing.T) {
	server, _ := newServer(t, nil)
	dir := t.TempDir()
	d := NewDownloader(dir)
	d.Silent = true
	_, err := d.Download(context.Background(), server.URL+"/missing.zip")
	assert.True(t, errors.Is(err, ErrTransfer))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloader_Canceled(t *testing.T) {
	server, _ := newServer(t, map[string][]byte{"/a.zip": []byte("a")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDownloader(t.TempDir())
	d.Silent = true
	_, err := d.Download(ctx, server.URL+"/a.zip")
	assert.True(t, errors.Is(err, ErrTransfer))
}

func TestExtract_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(archive, []byte("not a zip file"), 0644))
	_, err := Extract(archive, "u.data", dir)
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.NoFileExists(t, archive)
}

func TestExtract_MissingMember(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.zip")
	require.NoError(t, os.WriteFile(archive, newZip(t, map[string]string{"a.csv": "1,2,3"}), 0644))
	_, err := Extract(archive, "b.csv", dir)
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.True(t, errors.Is(err, errors.NotFound))
	assert.FileExists(t, archive)
}

func TestExtract_ZipSlip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(archive, newZip(t, map[string]string{"../evil.csv": "1,2,3"}), 0644))
	_, err := Extract(archive, "../evil.csv", filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrTransfer))
	assert.NoFileExists(t, filepath.Join(dir, "evil.csv"))
}
