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
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/gorse-io/urm/common/datautil"
	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/common/monitor"
	"github.com/gorse-io/urm/common/random"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/gorse-io/urm/config"
	"github.com/gorse-io/urm/dataset"
	"github.com/gorse-io/urm/storage/artifact"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Result holds the matrices of a build. URM, Users and Items are nil when
// only the split matrices were found in the cache.
type Result struct {
	URM        *sparse.COO
	Users      *dataset.Index
	Items      *dataset.Index
	Train      *sparse.CSR
	Test       *sparse.CSR
	Validation *sparse.CSR

	// Source tells where the result came from.
	Source string

	rng *random.Generator
}

// Folds creates a k-fold iterator over the URM.
func (r *Result) Folds(k int) (*dataset.KFold, error) {
	if r.URM == nil {
		return nil, errors.WithType(errors.New("URM was not loaded, use force_rebuild to build it"), dataset.ErrMissingState)
	}
	return dataset.NewKFold(r.URM, k, r.rng)
}

// Describe summarizes the URM.
func (r *Result) Describe() (*dataset.Stats, error) {
	if r.URM == nil {
		return nil, errors.WithType(errors.New("URM was not loaded, use force_rebuild to build it"), dataset.ErrMissingState)
	}
	return dataset.Describe(r.URM.ToCSR())
}

// Reader turns a ratings file into a user rating matrix and its splits,
// reusing cached artifacts whose build record matches the configuration.
type Reader struct {
	config     *config.Config
	store      *artifact.Store
	metrics    *monitor.Metrics
	downloader *datautil.Downloader
	rng        *random.Generator
	logger     *zap.Logger
}

func NewReader(cfg *config.Config, store *artifact.Store, opts ...Option) *Reader {
	opt := NewOptions(cfg.Dataset.Dir, opts...)
	return &Reader{
		config:     cfg,
		store:      store,
		metrics:    opt.Metrics,
		downloader: opt.Downloader,
		rng:        random.New(cfg.Split.Seed),
		logger:     log.Logger().With(zap.String("build_id", uuid.NewString())),
	}
}

// Process loads the matrices from the cache or builds them from the ratings file.
func (r *Reader) Process(ctx context.Context) (*Result, error) {
	ratio, err := r.config.Ratio()
	if err != nil {
		return nil, errors.Trace(err)
	}
	record := r.config.Record()
	if r.config.Cache.UseLocal && !r.config.Cache.ForceRebuild {
		result, err := r.loadCache(ctx, record, ratio)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if result != nil {
			r.metrics.IncBuild(result.Source)
			return result, nil
		}
	}
	result, err := r.rebuild(ctx, record, ratio)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r.metrics.IncBuild(result.Source)
	return result, nil
}

// loadCache returns nil if the cache cannot serve the request.
func (r *Reader) loadCache(ctx context.Context, record config.BuildRecord, ratio dataset.Ratio) (*Result, error) {
	stored, err := r.store.LoadRecord(ctx)
	if errors.Is(err, errors.NotFound) {
		r.logger.Info("no build record found, rebuild dataset")
		return nil, nil
	} else if err != nil {
		r.logger.Warn("failed to load build record, rebuild dataset", zap.Error(err))
		return nil, nil
	}
	if stored != record {
		r.logger.Info("build record changed, rebuild dataset",
			zap.Any("stored", stored), zap.Any("requested", record))
		return nil, nil
	}

	splitFiles := lo.Map(artifact.SplitNames, func(name string, _ int) string {
		return artifact.MatrixFile(name)
	})
	hasSplits, err := r.store.Exists(ctx, splitFiles...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	hasURM, err := r.store.Exists(ctx, artifact.MatrixFile(artifact.URM), artifact.UserIndexFile, artifact.ItemIndexFile)
	if err != nil {
		return nil, errors.Trace(err)
	}

	switch {
	case hasSplits:
		done := r.metrics.StartStage(monitor.StageLoad)
		defer done()
		result := &Result{Source: monitor.SourceCache, rng: r.rng}
		splits, err := r.store.LoadSplits(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		result.setSplits(splits)
		if hasURM {
			if err = r.loadURM(ctx, result); err != nil {
				return nil, errors.Trace(err)
			}
			r.skipSplit(result.URM, ratio)
		}
		r.logger.Info("load splits from cache", zap.Bool("urm", hasURM))
		r.observe(result)
		return result, nil
	case hasURM:
		result := &Result{Source: monitor.SourceURM, rng: r.rng}
		done := r.metrics.StartStage(monitor.StageLoad)
		err = r.loadURM(ctx, result)
		done()
		if err != nil {
			return nil, errors.Trace(err)
		}
		r.logger.Info("load URM from cache, split dataset")
		if err = r.split(result, ratio); err != nil {
			return nil, errors.Trace(err)
		}
		if r.config.Cache.SaveLocal {
			if err = r.saveSplits(ctx, result); err != nil {
				return nil, errors.Trace(err)
			}
		}
		r.observe(result)
		return result, nil
	default:
		r.logger.Info("no cached matrices found, rebuild dataset")
		return nil, nil
	}
}

func (r *Reader) loadURM(ctx context.Context, result *Result) (err error) {
	if result.URM, err = r.store.LoadCOO(ctx, artifact.URM); err != nil {
		return errors.Trace(err)
	}
	if result.Users, err = r.store.LoadIndex(ctx, artifact.UserIndexFile); err != nil {
		return errors.Trace(err)
	}
	if result.Items, err = r.store.LoadIndex(ctx, artifact.ItemIndexFile); err != nil {
		return errors.Trace(err)
	}
	if result.Users.Len() != result.URM.NumRows || result.Items.Len() != result.URM.NumCols {
		return errors.NotValidf("cached URM of shape (%d, %d) with %d users and %d items",
			result.URM.NumRows, result.URM.NumCols, result.Users.Len(), result.Items.Len())
	}
	return nil
}

func (r *Reader) rebuild(ctx context.Context, record config.BuildRecord, ratio dataset.Ratio) (*Result, error) {
	path, source, err := r.locate(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	result := &Result{Source: source, rng: r.rng}

	// parse
	done := r.metrics.StartStage(monitor.StageParse)
	interactions, err := dataset.ParseFile(path, r.config.ParseOptions())
	done()
	if err != nil {
		return nil, errors.Trace(err)
	}
	r.metrics.AddParsedLines(interactions.Len())

	// build
	done = r.metrics.StartStage(monitor.StageBuild)
	urm, err := dataset.Build(interactions, r.config.BuildOptions())
	done()
	if err != nil {
		return nil, errors.Trace(err)
	}
	r.metrics.SetDroppedItems(len(urm.DroppedItems))
	result.URM, result.Users, result.Items = urm.Matrix, urm.Users, urm.Items

	// split
	if err = r.split(result, ratio); err != nil {
		return nil, errors.Trace(err)
	}
	r.observe(result)

	if r.config.Cache.SaveLocal {
		if err = r.save(ctx, result, record); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return result, nil
}

// locate returns the path of the ratings file, downloading it if needed.
func (r *Reader) locate(ctx context.Context) (string, string, error) {
	cfg := r.config.Dataset
	if r.config.Cache.UseLocal && cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err == nil {
			return cfg.Path, monitor.SourceLocal, nil
		} else if cfg.URL == "" {
			return "", "", errors.NewNotFound(err, "ratings file "+cfg.Path)
		}
		r.logger.Info("ratings file not found, download dataset", zap.String("path", cfg.Path))
	}
	if cfg.URL == "" || cfg.Member == "" {
		return "", "", errors.NotValidf("dataset without url and member")
	}
	if !r.config.Cache.UseLocal {
		if err := r.downloader.Clean(cfg.URL, cfg.Member); err != nil {
			return "", "", errors.Trace(err)
		}
	}
	done := r.metrics.StartStage(monitor.StageDownload)
	defer done()
	path, err := r.downloader.Fetch(ctx, cfg.URL, cfg.Member)
	if err != nil {
		return "", "", errors.Trace(err)
	}
	return path, monitor.SourceDownload, nil
}

// skipSplit advances the generator past the draws of a split of m, so the
// folds of a cached result equal the folds after a rebuild.
func (r *Reader) skipSplit(m *sparse.COO, ratio dataset.Ratio) {
	filtered, _ := dataset.FilterMinRatings(m, r.config.Split.MinRatings)
	r.rng.Categoricals(filtered.Nnz(), ratio[:])
}

func (r *Reader) split(result *Result, ratio dataset.Ratio) error {
	done := r.metrics.StartStage(monitor.StageSplit)
	defer done()
	splits, err := dataset.Split(result.URM, ratio, r.config.Split.MinRatings, r.rng)
	if err != nil {
		return errors.Trace(err)
	}
	r.metrics.SetFilteredUsers(splits.FilteredUsers)
	result.setSplits(splits)
	return nil
}

// save writes every artifact. The record is removed first and written last, so
// an interrupted save never leaves a record next to partial artifacts.
func (r *Reader) save(ctx context.Context, result *Result, record config.BuildRecord) error {
	done := r.metrics.StartStage(monitor.StageSave)
	defer done()
	if err := r.store.RemoveRecord(ctx); err != nil {
		return errors.Trace(err)
	}
	if err := r.store.SaveCOO(ctx, artifact.URM, result.URM); err != nil {
		return errors.Trace(err)
	}
	if err := r.store.SaveIndex(ctx, artifact.UserIndexFile, result.Users); err != nil {
		return errors.Trace(err)
	}
	if err := r.store.SaveIndex(ctx, artifact.ItemIndexFile, result.Items); err != nil {
		return errors.Trace(err)
	}
	if err := r.store.SaveSplits(ctx, result.splits()); err != nil {
		return errors.Trace(err)
	}
	if err := r.store.SaveRecord(ctx, record); err != nil {
		return errors.Trace(err)
	}
	r.logger.Info("save dataset", zap.String("dir", r.config.Storage.Dir))
	return nil
}

func (r *Reader) saveSplits(ctx context.Context, result *Result) error {
	done := r.metrics.StartStage(monitor.StageSave)
	defer done()
	return r.store.SaveSplits(ctx, result.splits())
}

func (r *Reader) observe(result *Result) {
	if result.URM != nil {
		r.metrics.ObserveMatrix(artifact.URM, result.URM.NumRows, result.URM.NumCols, result.URM.Nnz())
	}
	for i, m := range []*sparse.CSR{result.Train, result.Test, result.Validation} {
		r.metrics.ObserveMatrix(artifact.SplitNames[i], m.NumRows, m.NumCols, m.Nnz())
	}
	r.logger.Info("dataset ready",
		zap.String("source", result.Source),
		zap.Int("train", result.Train.Nnz()),
		zap.Int("test", result.Test.Nnz()),
		zap.Int("validation", result.Validation.Nnz()))
}

func (r *Result) setSplits(splits *dataset.Splits) {
	r.Train, r.Test, r.Validation = splits.Train, splits.Test, splits.Validation
}

func (r *Result) splits() *dataset.Splits {
	return &dataset.Splits{Train: r.Train, Test: r.Test, Validation: r.Validation}
}
