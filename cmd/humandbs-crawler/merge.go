// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub003/internal/merge"
	"github.com/dbcls/humandbs-sub003/internal/normalize"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge per-language results into bilingual structured records",
	Long: `Merge pairs the ja and en parse results of each research version,
merges them into bilingual research, research-version, and dataset
records, expands partial dataset references through each page's
co-occurrence graph, and assigns content-based dataset versions against
the version history already on disk.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("hum-id", "", "process only this research record")
	mergeCmd.Flags().String("file", "", "process only this parsed file")
	mergeCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	started := time.Now()

	humID, _ := cmd.Flags().GetString("hum-id")
	file, _ := cmd.Flags().GetString("file")
	report, _ := cmd.Flags().GetString("report")

	cfg := types.MergeConfig{
		ParsedDir: workPath(cmd, "parsed-json"),
		OutDir:    workPath(cmd, "structured-json"),
	}
	filter := normalize.Filter{HumID: humID, File: file}

	summary, err := merge.RunAll(merge.NewMerger(logger), cfg, filter, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("merged %d research, %d versions, %d datasets (%d reused), failed %d\n",
		summary.Researches, summary.ResearchVersions, summary.Datasets, summary.Reused, summary.Failed)

	if err := writeReport(report, "merge", started, summary); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d research record(s) failed to merge", summary.Failed)
	}
	return nil
}
