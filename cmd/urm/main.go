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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorse-io/urm/cmd/version"
	"github.com/gorse-io/urm/common/log"
	"github.com/gorse-io/urm/common/monitor"
	"github.com/gorse-io/urm/config"
	"github.com/gorse-io/urm/pipeline"
	"github.com/gorse-io/urm/storage/artifact"
	"github.com/gorse-io/urm/storage/blob"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "urm",
	Short: "Build user rating matrices and train/test/validation splits from ratings files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			log.CloseLogger()
			return
		}
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	SilenceUsage: true,
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of urm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().BoolP("quiet", "q", false, "only log fatal errors")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("metrics-file", "", "write metrics in the text exposition format to this file")
	rootCommand.AddCommand(versionCommand)
}

// process loads the configuration and runs the pipeline.
func process(cmd *cobra.Command) (*pipeline.Result, *config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to load config")
	}
	if cmd.Flags().Changed("force-rebuild") {
		conf.Cache.ForceRebuild, _ = cmd.Flags().GetBool("force-rebuild")
	}
	store, err := blob.Open(conf.Storage)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to open storage")
	}

	metrics := monitor.NewMetrics()
	reader := pipeline.NewReader(conf, artifact.NewStore(store), pipeline.WithMetrics(metrics))
	result, err := reader.Process(cmd.Context())
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
		if err = metrics.WriteToTextfile(metricsFile); err != nil {
			return nil, nil, errors.Annotate(err, "failed to write metrics")
		}
	}
	return result, conf, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Error("urm failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}
