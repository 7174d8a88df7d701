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

package pipeline

import (
	"github.com/gorse-io/urm/common/datautil"
	"github.com/gorse-io/urm/common/monitor"
)

type Options struct {
	Metrics    *monitor.Metrics
	Downloader *datautil.Downloader
}

type Option func(*Options)

// WithMetrics records stage timings and matrix sizes into m.
func WithMetrics(m *monitor.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithDownloader replaces the default downloader, which writes into the
// dataset directory.
func WithDownloader(d *datautil.Downloader) Option {
	return func(o *Options) {
		o.Downloader = d
	}
}

func NewOptions(dir string, opts ...Option) Options {
	opt := Options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.Downloader == nil {
		opt.Downloader = datautil.NewDownloader(dir)
	}
	return opt
}
