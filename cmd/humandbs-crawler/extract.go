// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub003/internal/extract"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Derive searchable fields per experiment via the AI model",
	Long: `Extract sends each experiment of each enriched dataset to the model
and stores the returned structured fields alongside the experiment.
Datasets whose output already carries extracted fields are skipped, so
an interrupted run resumes where it left off. --retry-failed retries
only experiments whose extraction previously failed; by default only
the highest version of each dataset is processed.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("hum-id", "", "process only this research record")
	extractCmd.Flags().String("dataset-id", "", "process only this dataset")
	extractCmd.Flags().String("file", "", "process only this dataset file")
	extractCmd.Flags().String("model", "", "AI model identifier")
	extractCmd.Flags().Int("concurrency", 2, "datasets processed in parallel")
	extractCmd.Flags().Int("experiment-concurrency", 4, "experiments processed in parallel per dataset")
	extractCmd.Flags().Bool("force", false, "re-extract datasets that already carry extracted fields")
	extractCmd.Flags().Bool("retry-failed", false, "re-extract only experiments whose extraction failed")
	extractCmd.Flags().Bool("dry-run", false, "report what would be extracted without calling the model")
	extractCmd.Flags().Bool("latest-only", true, "process only the highest version of each dataset")
	extractCmd.Flags().Bool("skip-copy", false, "do not mirror unprocessed upstream files into the output")
	extractCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	started := time.Now()

	humID, _ := cmd.Flags().GetString("hum-id")
	datasetID, _ := cmd.Flags().GetString("dataset-id")
	file, _ := cmd.Flags().GetString("file")
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	expConcurrency, _ := cmd.Flags().GetInt("experiment-concurrency")
	force, _ := cmd.Flags().GetBool("force")
	retryFailed, _ := cmd.Flags().GetBool("retry-failed")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	latestOnly, _ := cmd.Flags().GetBool("latest-only")
	skipCopy, _ := cmd.Flags().GetBool("skip-copy")
	report, _ := cmd.Flags().GetString("report")

	if force && retryFailed {
		return fmt.Errorf("--force and --retry-failed are mutually exclusive")
	}

	cfg := types.ExtractionConfig{
		AIConfig: types.AIConfig{
			Model:      model,
			APIKey:     secretDefault("anthropic-api-key", os.Getenv("ANTHROPIC_API_KEY")),
			MaxRetries: 3,
		},
		EnrichedDir:           workPath(cmd, "enriched-json", "dataset"),
		OutDir:                workPath(cmd, "extracted-json", "dataset"),
		DatasetConcurrency:    concurrency,
		ExperimentConcurrency: expConcurrency,
		Force:                 force,
		RetryFailed:           retryFailed,
		DryRun:                dryRun,
		LatestOnly:            latestOnly,
		SkipCopy:              skipCopy,
	}

	var backend extract.AIBackend
	if !dryRun {
		b, err := extract.NewAnthropicBackend(cfg.AIConfig)
		if err != nil {
			return err
		}
		backend = b
	}

	filter := extract.Filter{HumID: humID, DatasetID: datasetID, File: file}
	summary, err := extract.RunAll(cmd.Context(), extract.New(backend, cfg, logger), filter, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("extracted %d, skipped %d, failed %d (%d empty experiments)\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.EmptyExperiments)

	if err := writeReport(report, "extract", started, summary); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d dataset(s) failed extraction", summary.Failed)
	}
	return nil
}
