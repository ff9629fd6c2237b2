// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the humandbs-crawler CLI.
//
// The crawler is a staged batch pipeline over the NBDC Human Database
// portal: fetch caches the bilingual research pages, parse turns them
// into normalized per-language JSON, merge builds bilingual research,
// research-version, and dataset records, enrich attaches external
// accession metadata and DOIs, and extract derives searchable fields
// per experiment. Stages communicate only through on-disk JSON under
// the work directory, so any stage can be re-run or resumed.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbcls/humandbs-sub003/internal/secrets"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "humandbs-crawler/0.1 (+https://humandbs.dbcls.jp)"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide structured logger, built after flag
// parsing so --verbose and --quiet take effect.
var logger *zap.Logger

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "humandbs-crawler",
	Short: "ETL pipeline for the NBDC Human Database portal",
	Long: `humandbs-crawler turns the bilingual NBDC Human Database research pages
into structured JSON records for search and indexing.

Each pipeline stage is a subcommand: fetch, parse, merge, enrich, and
extract. Stages read and write fixed subdirectories of the work
directory and are individually resumable; re-running a stage skips
work that is already done.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(cmd); err != nil {
			return err
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func setupLogger(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch {
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case quiet:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./humandbs-crawler.yaml or ~/.config/humandbs-crawler/config.yaml)")
	rootCmd.PersistentFlags().String("work-dir", "work", "base directory for pipeline stage data")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "log errors only")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("humandbs-crawler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "humandbs-crawler"))
		}
	}

	viper.SetEnvPrefix("HUMANDBS_CRAWLER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// workPath resolves a staging subdirectory under --work-dir.
func workPath(cmd *cobra.Command, parts ...string) string {
	workDir, _ := cmd.Flags().GetString("work-dir")
	return filepath.Join(append([]string{workDir}, parts...)...)
}

func httpConfig() types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:    defaultTimeout,
		UserAgent:  defaultUserAgent,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
