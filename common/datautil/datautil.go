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

package datautil

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gorse-io/urm/common/log"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// ErrTransfer marks failures while downloading or extracting a dataset.
const ErrTransfer = errors.ConstError("transfer failed")

func transferError(err error, format string, args ...any) error {
	return errors.WithType(errors.Annotatef(err, format, args...), ErrTransfer)
}

// Downloader fetches dataset archives over HTTP.
type Downloader struct {
	Client *http.Client
	// Dir receives downloaded archives and extracted files.
	Dir string
	// Silent hides the progress bar.
	Silent bool
}

func NewDownloader(dir string) *Downloader {
	return &Downloader{Client: http.DefaultClient, Dir: dir}
}

// Fetch makes sure member of the archive at src exists under Dir and returns its
// path. Archives and members already present are reused.
func (d *Downloader) Fetch(ctx context.Context, src, member string) (string, error) {
	target := filepath.Join(d.Dir, filepath.FromSlash(member))
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}
	archive, err := d.Download(ctx, src)
	if err != nil {
		return "", err
	}
	return Extract(archive, member, d.Dir)
}

func (d *Downloader) archivePath(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", transferError(err, "invalid source %s", src)
	}
	return filepath.Join(d.Dir, path.Base(u.Path)), nil
}

// Clean removes the archive of src and its extracted member, so the next Fetch
// downloads them again.
func (d *Downloader) Clean(src, member string) error {
	archive, err := d.archivePath(src)
	if err != nil {
		return err
	}
	for _, name := range []string{archive, filepath.Join(d.Dir, filepath.FromSlash(member))} {
		if err = os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Trace(err)
		}
	}
	return nil
}

// Download saves src under Dir and returns the local file name. An existing
// file of the same name is reused. A failed download leaves nothing behind.
func (d *Downloader) Download(ctx context.Context, src string) (string, error) {
	fileName, err := d.archivePath(src)
	if err != nil {
		return "", err
	}
	if _, err = os.Stat(fileName); err == nil {
		log.Logger().Info("reuse downloaded archive", zap.String("filename", fileName))
		return fileName, nil
	}
	log.Logger().Info("download dataset", zap.String("source", src), zap.String("destination", fileName))
	if err = os.MkdirAll(d.Dir, os.ModePerm); err != nil {
		return "", transferError(err, "failed to create %s", d.Dir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", transferError(err, "failed to request %s", src)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", transferError(err, "failed to download %s", src)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", transferError(errors.Errorf("unexpected status %s", resp.Status), "failed to download %s", src)
	}

	// write to a temporary name so that a broken download is never reused
	partial := fileName + ".part"
	output, err := os.Create(partial)
	if err != nil {
		return "", transferError(err, "failed to create %s", partial)
	}
	var bar *progressbar.ProgressBar
	if d.Silent {
		bar = progressbar.DefaultBytesSilent(resp.ContentLength, "downloading")
	} else {
		bar = progressbar.DefaultBytes(resp.ContentLength, "downloading "+filepath.Base(fileName))
	}
	pbReader := progressbar.NewReader(resp.Body, bar)
	if _, err = io.Copy(output, &pbReader); err != nil {
		_ = output.Close()
		_ = os.Remove(partial)
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return "", transferError(err, "failed to download %s", src)
	}
	if err = output.Close(); err != nil {
		_ = os.Remove(partial)
		return "", transferError(err, "failed to write %s", partial)
	}
	if err = os.Rename(partial, fileName); err != nil {
		_ = os.Remove(partial)
		return "", transferError(err, "failed to rename %s", partial)
	}
	return fileName, nil
}

// Extract copies a single member of a zip archive into dst and returns its
// path. A corrupt archive is removed so that the next attempt downloads it again.
func Extract(archive, member, dst string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		_ = os.Remove(archive)
		log.Logger().Error("remove corrupt archive", zap.Error(err), zap.String("archive", archive))
		return "", transferError(err, "failed to open %s", archive)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != member {
			continue
		}
		filePath := filepath.Join(dst, filepath.FromSlash(f.Name))
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return "", transferError(errors.NotValidf("file path %s", filePath), "failed to extract %s", member)
		}
		if f.FileInfo().IsDir() {
			return "", transferError(errors.NotValidf("directory member %s", member), "failed to extract %s", member)
		}
		if err = extractFile(f, filePath); err != nil {
			return "", transferError(err, "failed to extract %s", member)
		}
		log.Logger().Info("extract dataset", zap.String("archive", archive), zap.String("file", filePath))
		return filePath, nil
	}
	return "", transferError(errors.NotFoundf("member %s", member), "failed to extract %s", member)
}

func extractFile(f *zip.File, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Trace(err)
	}
	defer rc.Close()
	outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		_ = os.Remove(filePath)
		return errors.Trace(err)
	}
	if err = outFile.Close(); err != nil {
		_ = os.Remove(filePath)
		return errors.Trace(err)
	}
	return nil
}
