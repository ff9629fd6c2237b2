// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub003/internal/cachestore"
	"github.com/dbcls/humandbs-sub003/internal/enrich"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Attach external accession metadata and resolve DOIs",
	Long: `Enrich runs two idempotent passes over the structured records. The
accession pass looks each dataset up in the DDBJ registries and copies
the record with its metadata into enriched-json. The DOI pass searches
OpenAlex by publication title for publications lacking a DOI. Every
lookup result, including not-found, is cached in the lookup database so
reruns never repeat a call.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("hum-id", "", "process only this research record")
	enrichCmd.Flags().String("dataset-id", "", "process only this dataset")
	enrichCmd.Flags().String("file", "", "process only this dataset file")
	enrichCmd.Flags().Duration("delay", time.Second, "delay between external API calls")
	enrichCmd.Flags().Bool("force", false, "re-enrich datasets that already carry metadata")
	enrichCmd.Flags().Bool("skip-copy", false, "do not copy datasets with no metadata into the output")
	enrichCmd.Flags().String("openalex-email", "", "contact email for the OpenAlex polite pool")
	enrichCmd.Flags().String("report", "", "write a YAML run report to this path")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	started := time.Now()

	humID, _ := cmd.Flags().GetString("hum-id")
	datasetID, _ := cmd.Flags().GetString("dataset-id")
	file, _ := cmd.Flags().GetString("file")
	delay, _ := cmd.Flags().GetDuration("delay")
	force, _ := cmd.Flags().GetBool("force")
	skipCopy, _ := cmd.Flags().GetBool("skip-copy")
	email, _ := cmd.Flags().GetString("openalex-email")
	report, _ := cmd.Flags().GetString("report")

	cfg := types.EnrichConfig{
		HTTPConfig:    httpConfig(),
		StructuredDir: workPath(cmd, "structured-json"),
		OutDir:        workPath(cmd, "enriched-json", "dataset"),
		CachePath:     workPath(cmd, "cache", "enrichment.db"),
		OpenAlexEmail: secretDefault("openalex-email", email),
		CallDelay:     delay,
		Force:         force,
		SkipCopy:      skipCopy,
	}

	if err := os.MkdirAll(workPath(cmd, "cache"), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := cachestore.Open(cfg.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	e := enrich.New(
		enrich.NewDDBJClient(store, cfg.HTTPConfig),
		enrich.NewDOIFinder(store, cfg.HTTPConfig, cfg.OpenAlexEmail),
		cfg, logger)

	filter := enrich.Filter{HumID: humID, DatasetID: datasetID, File: file}
	summary, err := enrich.RunAll(cmd.Context(), e, filter, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("enriched %d, skipped %d, not found %d, DOIs resolved %d, failed %d\n",
		summary.Enriched, summary.Skipped, summary.NotFound, summary.DOIsResolved, summary.Failed)

	if err := writeReport(report, "enrich", started, summary); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d item(s) failed enrichment", summary.Failed)
	}
	return nil
}
