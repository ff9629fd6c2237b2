// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub003/internal/accession"
	"github.com/dbcls/humandbs-sub003/internal/cachestore"
	"github.com/dbcls/humandbs-sub003/internal/enrich"
	"github.com/dbcls/humandbs-sub003/internal/htmlparse"
	"github.com/dbcls/humandbs-sub003/internal/normalize"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse cached pages into normalized per-language JSON",
	Long: `Parse reads every page in the HTML cache, sections it, extracts the
summary, molecular-data, provider, publication, user, and release
tables, normalizes text, dates, criteria, and accession identifiers,
and writes one JSON file per (humVersionId, language) pair.

JGA study accessions cited in the tables are expanded to their dataset
accessions through the DDBJ search API, cached in the lookup database.`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("hum-id", "", "process only this research record")
	parseCmd.Flags().String("file", "", "process only this cache file")
	parseCmd.Flags().Bool("offline", false, "skip JGA study expansion lookups")
	parseCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	started := time.Now()

	humID, _ := cmd.Flags().GetString("hum-id")
	file, _ := cmd.Flags().GetString("file")
	offline, _ := cmd.Flags().GetBool("offline")
	report, _ := cmd.Flags().GetString("report")

	cfg := types.ParseConfig{
		CacheDir: workPath(cmd, "html-cache"),
		OutDir:   workPath(cmd, "parsed-json"),
	}

	var norm *normalize.Normalizer
	if offline {
		norm = normalize.New(nil, logger)
	} else {
		cachePath := workPath(cmd, "cache", "enrichment.db")
		if err := os.MkdirAll(workPath(cmd, "cache"), 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
		store, err := cachestore.Open(cachePath)
		if err != nil {
			return err
		}
		defer store.Close()
		ddbj := enrich.NewDDBJClient(store, httpConfig())
		lookup := accession.Memoize(accession.StudyLookupFunc(ddbj.StudyDatasets), time.Hour)
		norm = normalize.New(lookup, logger)
	}

	parser := htmlparse.New(logger)
	filter := normalize.Filter{HumID: humID, File: file}

	summary, err := normalize.RunAll(cmd.Context(), parser, norm, cfg, filter, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("parsed %d, skipped %d, failed %d (%d orphan references)\n",
		summary.Parsed, summary.Skipped, summary.Failed, summary.Orphans)

	if err := writeReport(report, "parse", started, summary); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d page(s) failed to parse", summary.Failed)
	}
	return nil
}
