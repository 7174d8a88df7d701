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

package monitor

import (
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStage  = "stage"
	LabelMatrix = "matrix"
	LabelAxis   = "axis"
	LabelSource = "source"
)

const (
	StageParse    = "parse"
	StageBuild    = "build"
	StageSplit    = "split"
	StageLoad     = "load"
	StageSave     = "save"
	StageDownload = "download"
)

const (
	SourceCache    = "cache"
	SourceURM      = "urm"
	SourceLocal    = "local"
	SourceDownload = "download"
)

// Metrics collects the measurements of builds in a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ParsedLines   prometheus.Counter
	MatrixEntries *prometheus.GaugeVec
	MatrixShape   *prometheus.GaugeVec
	StageSeconds  *prometheus.HistogramVec
	BuildsTotal   *prometheus.CounterVec
	DroppedItems  prometheus.Gauge
	FilteredUsers prometheus.Gauge
}

// NewMetrics registers every metric in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ParsedLines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "urm",
			Subsystem: "parser",
			Name:      "parsed_lines_total",
		}),
		MatrixEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "urm",
			Subsystem: "matrix",
			Name:      "entries",
		}, []string{LabelMatrix}),
		MatrixShape: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "urm",
			Subsystem: "matrix",
			Name:      "shape",
		}, []string{LabelMatrix, LabelAxis}),
		StageSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "urm",
			Subsystem: "pipeline",
			Name:      "stage_seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{LabelStage}),
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urm",
			Subsystem: "pipeline",
			Name:      "builds_total",
		}, []string{LabelSource}),
		DroppedItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "urm",
			Subsystem: "builder",
			Name:      "dropped_items",
		}),
		FilteredUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "urm",
			Subsystem: "splitter",
			Name:      "filtered_users",
		}),
	}
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) AddParsedLines(n int) {
	if m == nil {
		return
	}
	m.ParsedLines.Add(float64(n))
}

// ObserveMatrix records the shape and number of entries of a named matrix.
func (m *Metrics) ObserveMatrix(name string, rows, cols, nnz int) {
	if m == nil {
		return
	}
	m.MatrixEntries.WithLabelValues(name).Set(float64(nnz))
	m.MatrixShape.WithLabelValues(name, "rows").Set(float64(rows))
	m.MatrixShape.WithLabelValues(name, "cols").Set(float64(cols))
}

// StartStage returns a function that records the elapsed time of a stage.
func (m *Metrics) StartStage(stage string) func() {
	start := time.Now()
	return func() {
		if m == nil {
			return
		}
		m.StageSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncBuild(source string) {
	if m == nil {
		return
	}
	m.BuildsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) SetDroppedItems(n int) {
	if m == nil {
		return
	}
	m.DroppedItems.Set(float64(n))
}

func (m *Metrics) SetFilteredUsers(n int) {
	if m == nil {
		return
	}
	m.FilteredUsers.Set(float64(n))
}

// WriteToTextfile dumps all metrics in the text exposition format, suitable for
// the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(filename string) error {
	if m == nil {
		return nil
	}
	return errors.Trace(prometheus.WriteToTextfile(filename, m.registry))
}
