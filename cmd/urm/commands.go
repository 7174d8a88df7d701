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
	"io"
	"strconv"

	"github.com/gorse-io/urm/common/sparse"
	"github.com/gorse-io/urm/dataset"
	"github.com/gorse-io/urm/pipeline"
	"github.com/gorse-io/urm/storage/artifact"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Build the user rating matrix and its splits",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, _, err := process(cmd)
		if err != nil {
			return err
		}
		return renderMatrices(cmd.OutOrStdout(), result)
	},
}

var describeCommand = &cobra.Command{
	Use:   "describe",
	Short: "Show statistics of the user rating matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, _, err := process(cmd)
		if err != nil {
			return err
		}
		stats, err := result.Describe()
		if err != nil {
			return errors.Trace(err)
		}
		return renderStats(cmd.OutOrStdout(), stats)
	},
}

var cvCommand = &cobra.Command{
	Use:   "cv",
	Short: "Generate k-fold cross validation splits of the user rating matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, conf, err := process(cmd)
		if err != nil {
			return err
		}
		k := conf.Split.Folds
		if cmd.Flags().Changed("folds") {
			k, _ = cmd.Flags().GetInt("folds")
		}
		folds, err := result.Folds(k)
		if err != nil {
			return errors.Trace(err)
		}
		var rows []dataset.Fold
		for folds.HasNext() {
			fold, err := folds.Next()
			if err != nil {
				return errors.Trace(err)
			}
			rows = append(rows, *fold)
		}
		return renderFolds(cmd.OutOrStdout(), rows)
	},
}

var datasetsCommand = &cobra.Command{
	Use:   "datasets",
	Short: "List built-in datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderBuiltIns(cmd.OutOrStdout())
	},
}

func init() {
	for _, command := range []*cobra.Command{buildCommand, describeCommand, cvCommand} {
		command.Flags().Bool("force-rebuild", false, "ignore cached artifacts")
		rootCommand.AddCommand(command)
	}
	cvCommand.Flags().IntP("folds", "k", 0, "number of folds (default split.folds)")
	rootCommand.AddCommand(datasetsCommand)
}

func renderMatrices(w io.Writer, result *pipeline.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Matrix", "Rows", "Columns", "Entries")
	appendMatrix := func(name string, rows, cols, nnz int) error {
		return table.Append([]string{name, strconv.Itoa(rows), strconv.Itoa(cols), strconv.Itoa(nnz)})
	}
	if result.URM != nil {
		if err := appendMatrix(artifact.URM, result.URM.NumRows, result.URM.NumCols, result.URM.Nnz()); err != nil {
			return errors.Trace(err)
		}
	}
	for i, m := range []*sparse.CSR{result.Train, result.Test, result.Validation} {
		if err := appendMatrix(artifact.SplitNames[i], m.NumRows, m.NumCols, m.Nnz()); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func renderStats(w io.Writer, stats *dataset.Stats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Statistic", "Value")
	rows := [][]string{
		{"users", strconv.Itoa(stats.Users)},
		{"items", strconv.Itoa(stats.Items)},
		{"ratings", strconv.Itoa(stats.Ratings)},
		{"density", strconv.FormatFloat(stats.Density, 'g', 6, 64)},
		{"cold start users", strconv.Itoa(stats.ColdStartUsers)},
		{"items per user (min/max/mean)", formatRange(stats.MinItemsPerUser, stats.MaxItemsPerUser, stats.MeanItemsPerUser)},
		{"users per item (min/max/mean)", formatRange(stats.MinUsersPerItem, stats.MaxUsersPerItem, stats.MeanUsersPerItem)},
	}
	if err := table.Bulk(rows); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}

func formatRange(minimum, maximum int, mean float64) string {
	return strconv.Itoa(minimum) + " / " + strconv.Itoa(maximum) + " / " + strconv.FormatFloat(mean, 'f', 2, 64)
}

func renderFolds(w io.Writer, folds []dataset.Fold) error {
	table := tablewriter.NewWriter(w)
	table.Header("Fold", "Train", "Test")
	rows := lo.Map(folds, func(fold dataset.Fold, _ int) []string {
		return []string{strconv.Itoa(fold.Index), strconv.Itoa(fold.Train.Nnz()), strconv.Itoa(fold.Test.Nnz())}
	})
	if err := table.Bulk(rows); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}

func renderBuiltIns(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "URL", "Member", "Delimiter", "Header")
	for _, name := range dataset.BuiltInNames() {
		b, err := dataset.LocateBuiltIn(name)
		if err != nil {
			return errors.Trace(err)
		}
		if err = table.Append([]string{b.Name, b.URL, b.Member, strconv.Quote(b.Delimiter), strconv.FormatBool(b.Header)}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
