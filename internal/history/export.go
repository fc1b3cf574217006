// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/convert-drop/pkg/types"
)

// Report is the exported form of the ledger.
type Report struct {
	GeneratedAt string                  `json:"generated_at" yaml:"generated_at"`
	Counts      map[types.JobStatus]int `json:"counts" yaml:"counts"`
	Jobs        []types.UploadJob       `json:"jobs" yaml:"jobs"`
}

// Export builds a Report over the jobs matching opts.
func (s *Store) Export(ctx context.Context, opts ListOptions) (Report, error) {
	jobs, err := s.List(ctx, opts)
	if err != nil {
		return Report{}, fmt.Errorf("querying for export: %w", err)
	}
	counts, err := s.Counts(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{
		GeneratedAt: formatTime(nowFunc()),
		Counts:      counts,
		Jobs:        jobs,
	}, nil
}

// ExportYAML writes the report for opts to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions, path string) error {
	r, err := s.Export(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the report for opts to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions, path string) error {
	r, err := s.Export(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
