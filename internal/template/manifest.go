// SPDX-License-Identifier: MPL-2.0

package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"modkit-cli/internal/fsutil"
	"modkit-cli/internal/report"
	"modkit-cli/pkg/types"
)

// ManifestFileName is the catalog file, at a fixed path under the
// template root.
const ManifestFileName = "template_manifest.json"

// manifestVersion stamps freshly created manifests.
const manifestVersion = "1.0.0"

type (
	// Manifest is the persisted template catalog. It is loaded once at
	// engine construction and rewritten whole on every mutation
	// (last-writer-wins; callers needing concurrent safety must serialize
	// above this layer).
	Manifest struct {
		Version    string     `json:"version"`
		Templates  []Template `json:"templates"`
		Categories []Category `json:"categories"`
	}

	// Template is a catalog entry for one reusable module skeleton.
	// Variables is informational; the authoritative variable list is
	// re-derived from skeleton content by scanning.
	Template struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		File        string           `json:"file"`
		ScriptType  types.ScriptType `json:"script_type"`
		Categories  []string         `json:"categories"`
		Variables   []string         `json:"variables,omitempty"`
		Complexity  string           `json:"complexity,omitempty"`
		// RequiresFiles marks templates whose modules expect staged input files.
		RequiresFiles bool `json:"requires_files,omitempty"`
	}

	// Category is a grouping label for templates.
	Category struct {
		ID          string `json:"id,omitempty"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
)

func emptyManifest() Manifest {
	return Manifest{
		Version:    manifestVersion,
		Templates:  []Template{},
		Categories: []Category{},
	}
}

// loadManifest reads the catalog from dir. A missing or corrupt manifest
// yields an empty catalog with a warning; engine construction never fails
// on catalog problems.
func loadManifest(dir string, reporter report.Reporter) Manifest {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "manifest_not_found",
			Message:  "template manifest not found",
			Path:     path,
		})
		return emptyManifest()
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "manifest_corrupt",
			Message:  "failed to parse template manifest",
			Path:     path,
			Cause:    err,
		})
		return emptyManifest()
	}

	if m.Templates == nil {
		m.Templates = []Template{}
	}
	if m.Categories == nil {
		m.Categories = []Category{}
	}
	return m
}

// saveManifest rewrites the whole catalog via temp-file-and-rename so a
// crash never truncates it.
func saveManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize template manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFileName)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template manifest: %w", err)
	}
	return nil
}
