// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsonio holds the JSON checkpoint helpers shared by the
// pipeline stages.
package jsonio

import (
	"encoding/json"
	"fmt"
	"os"
)

// Write marshals v to path with indentation, via a temp file and
// rename so interrupted runs never leave partial checkpoints.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Read unmarshals path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
