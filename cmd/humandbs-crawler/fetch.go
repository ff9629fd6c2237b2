// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub003/internal/fetch"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download research pages into the HTML cache",
	Long: `Fetch downloads the ja and en page of every entry in the seed list
into the HTML cache. Pages already cached are skipped unless --force;
a fixed delay separates consecutive downloads.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("seed-file", "seeds.yaml", "YAML list of pages to fetch")
	fetchCmd.Flags().Duration("delay", time.Second, "delay between consecutive downloads")
	fetchCmd.Flags().Bool("force", false, "re-download pages that are already cached")
	fetchCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	started := time.Now()

	seedFile, _ := cmd.Flags().GetString("seed-file")
	delay, _ := cmd.Flags().GetDuration("delay")
	force, _ := cmd.Flags().GetBool("force")
	report, _ := cmd.Flags().GetString("report")

	cfg := types.FetchConfig{
		HTTPConfig: httpConfig(),
		SeedFile:   seedFile,
		CacheDir:   workPath(cmd, "html-cache"),
		UseCache:   !force,
		FetchDelay: delay,
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	seeds, err := fetch.LoadSeeds(cfg.SeedFile)
	if err != nil {
		return err
	}

	result := fetch.New(cfg).FetchBatch(cmd.Context(), seeds, os.Stdout)
	fmt.Printf("fetched %d, cached %d, failed %d\n", result.Fetched, result.Cached, result.Failed)

	if err := writeReport(report, "fetch", started, result); err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed to download", result.Failed)
	}
	return nil
}
