// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"modkit-cli/internal/fsutil"
	"modkit-cli/internal/report"
	"modkit-cli/pkg/types"

	"gopkg.in/yaml.v3"
)

func decodeJSONObject(content string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// WriteSidecar serializes metadata as a YAML sidecar next to the module,
// via temp-file-and-rename so a crash never truncates an existing sidecar.
func (c *Codec) WriteSidecar(modulePath string, md *Metadata) error {
	data, err := yaml.Marshal(md.ToDocument())
	if err != nil {
		return fmt.Errorf("failed to serialize metadata for %s: %w", modulePath, err)
	}
	if err := fsutil.WriteFileAtomic(SidecarPath(modulePath), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// GenerateFromLegacy synthesizes a structured sidecar for a legacy module
// and writes it to disk. An existing sidecar is never overwritten: it is
// parsed and returned instead, with a warning.
func (c *Codec) GenerateFromLegacy(modulePath string) (*Metadata, error) {
	if _, err := os.Stat(modulePath); err != nil {
		return nil, &NotFoundError{Path: modulePath}
	}

	metaPath := SidecarPath(modulePath)
	if _, err := os.Stat(metaPath); err == nil {
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "sidecar_already_exists",
			Message:  "metadata file already exists",
			Path:     metaPath,
		})
		return c.ParseSidecar(metaPath)
	}

	data, err := os.ReadFile(modulePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read module at %s: %w", modulePath, err)
	}

	md := ParseLegacy(string(data))
	md.Name = filepath.Base(modulePath)
	if st, stErr := types.ScriptTypeForPath(modulePath); stErr == nil {
		md.ScriptType = st
	}

	if err := c.WriteSidecar(modulePath, md); err != nil {
		return nil, err
	}
	return md, nil
}
