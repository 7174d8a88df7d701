// Copyright 2020 gorse Project Authors
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

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/urm/common/sparse"
	"github.com/gorse-io/urm/dataset"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	BackendPOSIX = "posix"
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendAzure = "azure"
)

// Config is the configuration of a dataset build.
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Reader  ReaderConfig  `mapstructure:"reader"`
	Build   BuildConfig   `mapstructure:"build"`
	Split   SplitConfig   `mapstructure:"split"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
}

// DatasetConfig locates the ratings file. A built-in name fills the url, the
// member and the reader layout unless they are set explicitly.
type DatasetConfig struct {
	Name   string `mapstructure:"name"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url" validate:"omitempty,url"`
	Member string `mapstructure:"member"`
	Dir    string `mapstructure:"dir" validate:"required"`
}

type ColumnsConfig struct {
	UserID int `mapstructure:"user_id" json:"user_id" validate:"gte=0"`
	ItemID int `mapstructure:"item_id" json:"item_id" validate:"gte=0"`
	Rating int `mapstructure:"rating" json:"rating" validate:"gte=-1"`
}

type ReaderConfig struct {
	Columns   ColumnsConfig `mapstructure:"columns"`
	Delimiter string        `mapstructure:"delimiter" validate:"required"`
	Header    bool          `mapstructure:"header"`
}

type BuildConfig struct {
	Implicit     bool    `mapstructure:"implicit"`
	RemoveTopPop float64 `mapstructure:"remove_top_pop" validate:"gte=0,lt=1"`
	Duplicates   string  `mapstructure:"duplicates" validate:"oneof=keep sum last reject"`
}

type SplitConfig struct {
	Ratio        []float64 `mapstructure:"ratio" validate:"len=3,dive,gte=0,lte=1"`
	MinRatings   int       `mapstructure:"min_ratings" validate:"gte=0"`
	StratifiedOn string    `mapstructure:"stratified_on"`
	Seed         int64     `mapstructure:"seed"`
	Folds        int       `mapstructure:"folds" validate:"gte=1"`
}

type CacheConfig struct {
	UseLocal     bool `mapstructure:"use_local"`
	SaveLocal    bool `mapstructure:"save_local"`
	ForceRebuild bool `mapstructure:"force_rebuild"`
}

// StorageConfig selects where build artifacts are kept. The POSIX backend
// writes to Dir, which defaults to the dataset directory.
type StorageConfig struct {
	Backend string          `mapstructure:"backend" validate:"oneof=posix s3 gcs azure"`
	Dir     string          `mapstructure:"dir"`
	S3      S3Config        `mapstructure:"s3"`
	GCS     GCSConfig       `mapstructure:"gcs"`
	Azure   AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

func defaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".urm", "dataset")
	}
	return filepath.Join(os.TempDir(), "urm", "dataset")
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Dir: defaultDir(),
		},
		Reader: ReaderConfig{
			Columns: ColumnsConfig{
				UserID: dataset.DefaultColumns.UserID,
				ItemID: dataset.DefaultColumns.ItemID,
				Rating: dataset.DefaultColumns.Rating,
			},
			Delimiter: ",",
		},
		Build: BuildConfig{
			Duplicates: string(sparse.DuplicateKeep),
		},
		Split: SplitConfig{
			Ratio:        slices.Clone(dataset.DefaultRatio[:]),
			MinRatings:   1,
			StratifiedOn: "item_popularity",
			Seed:         1234,
			Folds:        10,
		},
		Cache: CacheConfig{
			UseLocal:  true,
			SaveLocal: true,
		},
		Storage: StorageConfig{
			Backend: BackendPOSIX,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.name", defaultConfig.Dataset.Name)
	v.SetDefault("dataset.path", defaultConfig.Dataset.Path)
	v.SetDefault("dataset.url", defaultConfig.Dataset.URL)
	v.SetDefault("dataset.member", defaultConfig.Dataset.Member)
	v.SetDefault("dataset.dir", defaultConfig.Dataset.Dir)
	// [reader]
	v.SetDefault("reader.columns.user_id", defaultConfig.Reader.Columns.UserID)
	v.SetDefault("reader.columns.item_id", defaultConfig.Reader.Columns.ItemID)
	v.SetDefault("reader.columns.rating", defaultConfig.Reader.Columns.Rating)
	v.SetDefault("reader.delimiter", defaultConfig.Reader.Delimiter)
	v.SetDefault("reader.header", defaultConfig.Reader.Header)
	// [build]
	v.SetDefault("build.implicit", defaultConfig.Build.Implicit)
	v.SetDefault("build.remove_top_pop", defaultConfig.Build.RemoveTopPop)
	v.SetDefault("build.duplicates", defaultConfig.Build.Duplicates)
	// [split]
	v.SetDefault("split.ratio", defaultConfig.Split.Ratio)
	v.SetDefault("split.min_ratings", defaultConfig.Split.MinRatings)
	v.SetDefault("split.stratified_on", defaultConfig.Split.StratifiedOn)
	v.SetDefault("split.seed", defaultConfig.Split.Seed)
	v.SetDefault("split.folds", defaultConfig.Split.Folds)
	// [cache]
	v.SetDefault("cache.use_local", defaultConfig.Cache.UseLocal)
	v.SetDefault("cache.save_local", defaultConfig.Cache.SaveLocal)
	v.SetDefault("cache.force_rebuild", defaultConfig.Cache.ForceRebuild)
	// [storage]
	v.SetDefault("storage.backend", defaultConfig.Storage.Backend)
	v.SetDefault("storage.dir", defaultConfig.Storage.Dir)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.use_ssl", false)
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.gcs.prefix", "")
	v.SetDefault("storage.gcs.credentials_file", "")
	v.SetDefault("storage.azure.connection_string", "")
	v.SetDefault("storage.azure.account_name", "")
	v.SetDefault("storage.azure.account_key", "")
	v.SetDefault("storage.azure.endpoint", "")
	v.SetDefault("storage.azure.container", "")
	v.SetDefault("storage.azure.prefix", "")
}

// setBuiltInDefault replaces the reader defaults by the layout of a built-in
// dataset. Values set in the file or the environment still take precedence.
func setBuiltInDefault(v *viper.Viper, name string) error {
	b, err := dataset.LocateBuiltIn(name)
	if err != nil {
		return errors.Trace(err)
	}
	v.SetDefault("dataset.url", b.URL)
	v.SetDefault("dataset.member", b.Member)
	v.SetDefault("reader.columns.user_id", b.Columns.UserID)
	v.SetDefault("reader.columns.item_id", b.Columns.ItemID)
	v.SetDefault("reader.columns.rating", b.Columns.Rating)
	v.SetDefault("reader.delimiter", b.Delimiter)
	v.SetDefault("reader.header", b.Header)
	return nil
}

// LoadConfig reads a configuration file. Every key can be overridden by an
// environment variable, e.g. URM_SPLIT_SEED for split.seed. An empty path loads
// the defaults and the environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("URM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config file %s", path)
		}
	}
	if name := v.GetString("dataset.name"); name != "" {
		if err := setBuiltInDefault(v, name); err != nil {
			return nil, err
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Annotate(err, "failed to parse config")
	}
	if conf.Storage.Dir == "" {
		conf.Storage.Dir = conf.Dataset.Dir
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the configuration before any file is touched.
func (config *Config) Validate() error {
	if err := getValidator().Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid configuration")
	}
	if _, err := config.Ratio(); err != nil {
		return err
	}
	if err := config.ColumnsOptions().Validate(); err != nil {
		return err
	}
	if config.Dataset.Path == "" && (config.Dataset.URL == "" || config.Dataset.Member == "") {
		return errors.NotValidf("dataset without path or url and member")
	}
	if !config.Cache.UseLocal && (config.Dataset.URL == "" || config.Dataset.Member == "") {
		return errors.NotValidf("dataset without url and member when use_local is disabled")
	}
	switch config.Storage.Backend {
	case BackendS3:
		if config.Storage.S3.Endpoint == "" || config.Storage.S3.Bucket == "" {
			return errors.NotValidf("s3 storage without endpoint or bucket")
		}
	case BackendGCS:
		if config.Storage.GCS.Bucket == "" {
			return errors.NotValidf("gcs storage without bucket")
		}
	case BackendAzure:
		if config.Storage.Azure.Container == "" {
			return errors.NotValidf("azure storage without container")
		}
	}
	return nil
}

// Ratio returns the split ratio.
func (config *Config) Ratio() (dataset.Ratio, error) {
	return dataset.NewRatio(config.Split.Ratio)
}

// ColumnsOptions returns the column mapping of the reader.
func (config *Config) ColumnsOptions() dataset.Columns {
	return dataset.Columns{
		UserID: config.Reader.Columns.UserID,
		ItemID: config.Reader.Columns.ItemID,
		Rating: config.Reader.Columns.Rating,
	}
}

// ParseOptions returns the options of the interaction parser.
func (config *Config) ParseOptions() dataset.ParseOptions {
	return dataset.ParseOptions{
		Columns:   config.ColumnsOptions(),
		Delimiter: config.Reader.Delimiter,
		Header:    config.Reader.Header,
	}
}

// BuildOptions returns the options of the matrix builder.
func (config *Config) BuildOptions() dataset.BuildOptions {
	return dataset.BuildOptions{
		Implicit:     config.Implicit(),
		RemoveTopPop: config.Build.RemoveTopPop,
		Duplicates:   sparse.DuplicatePolicy(config.Build.Duplicates),
	}
}

// Implicit reports whether ratings are replaced by ones. A reader without a
// rating column always produces implicit feedback.
func (config *Config) Implicit() bool {
	return config.Build.Implicit || config.Reader.Columns.Rating < 0
}
