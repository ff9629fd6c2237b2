//go:build mage

// Package main contains Mage build targets for humandbs-crawler developer tooling.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runStage invokes the built CLI with the given stage arguments,
// writing a run report next to the other stage reports.
func runStage(stage string, extra ...string) error {
	mg.Deps(Build)

	bin := filepath.Join(binDir, binName)
	args := []string{stage, "--report", filepath.Join("work", "reports", stage+".yaml")}
	args = append(args, extra...)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", binName, stage, err)
	}
	return nil
}

// Fetch downloads the seeded portal pages into the HTML cache.
func Fetch() error {
	return runStage("fetch")
}

// Parse converts cached HTML pages into per-language parse checkpoints.
func Parse() error {
	return runStage("parse")
}

// Merge pairs the per-language checkpoints into structured records.
func Merge() error {
	return runStage("merge")
}

// Enrich attaches registry metadata and resolves publication DOIs.
func Enrich() error {
	return runStage("enrich")
}

// Extract derives searchable experiment fields with the AI backend.
func Extract() error {
	return runStage("extract")
}

// Pipeline runs every stage in order, stopping at the first failure.
func Pipeline() error {
	mg.Deps(Init)
	for _, stage := range []string{"fetch", "parse", "merge", "enrich", "extract"} {
		if err := runStage(stage); err != nil {
			return err
		}
	}
	return nil
}

// Test runs the full test suite.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Lint runs go vet over the module.
func Lint() error {
	cmd := exec.Command("go", "vet", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Clean removes the built binary and the pipeline work tree.
func Clean() error {
	for _, dir := range []string{binDir, "work"} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	return nil
}