// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// runReport is the YAML document written by --report.
type runReport struct {
	Stage      string `yaml:"stage"`
	StartedAt  string `yaml:"started_at"`
	FinishedAt string `yaml:"finished_at"`
	Summary    any    `yaml:"summary"`
}

// writeReport writes a stage summary to path when path is non-empty.
func writeReport(path, stage string, started time.Time, summary any) error {
	if path == "" {
		return nil
	}
	report := runReport{
		Stage:      stage,
		StartedAt:  started.UTC().Format(time.RFC3339),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:    summary,
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
