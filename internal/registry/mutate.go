// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"modkit-cli/internal/fsutil"
	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
	"modkit-cli/pkg/platform"
	"modkit-cli/pkg/types"
)

// ErrLegacyMetadataImmutable is returned by Save when a metadata rewrite is
// requested for a legacy module. The content write still happens; embedded
// metadata blocks are only rewritten through SaveLegacy or converted through
// ConvertLegacyToStructured.
var ErrLegacyMetadataImmutable = errors.New("legacy module metadata is not rewritten on save")

// unsafeNameChars matches everything a module file name may not contain.
var unsafeNameChars = regexp.MustCompile(`[^\w\-.]`)

// Save rewrites a module's content and, for structured modules, its sidecar
// metadata. For a legacy module the content is written and md is skipped
// with a warning and ErrLegacyMetadataImmutable; the index is refreshed
// either way.
func (r *Registry) Save(id, content string, md *metadata.Metadata) error {
	mod := r.modules[id]
	if mod == nil {
		return &metadata.NotFoundError{Path: id}
	}

	if err := r.writeContent(mod, content); err != nil {
		return err
	}

	var saveErr error
	if md != nil {
		switch mod.Format {
		case types.FormatStructured:
			if err := r.codec.WriteSidecar(mod.Path, md); err != nil {
				return err
			}
		case types.FormatLegacy:
			r.reporter.Report(report.Diagnostic{
				Severity: report.SeverityWarning,
				Code:     "legacy_metadata_skipped",
				Message:  "metadata not written: module uses embedded legacy blocks",
				Path:     mod.Path,
			})
			saveErr = fmt.Errorf("%s: %w", mod.Path, ErrLegacyMetadataImmutable)
		}
	}

	if _, err := r.Load(id); err != nil {
		return err
	}
	return saveErr
}

// SaveLegacy rewrites a legacy module's embedded metadata blocks: existing
// marker sections are stripped and fresh ones inserted after the shebang.
func (r *Registry) SaveLegacy(id string, md *metadata.Metadata) error {
	mod := r.modules[id]
	if mod == nil {
		return &metadata.NotFoundError{Path: id}
	}
	if mod.Format != types.FormatLegacy {
		return fmt.Errorf("module %s carries structured metadata; use Save", id)
	}

	content := metadata.InsertLegacy(metadata.RemoveLegacy(mod.Content), md)
	if err := r.writeContent(mod, content); err != nil {
		return err
	}
	_, err := r.Load(id)
	return err
}

// Delete removes a module file and drops it from the index. The sidecar
// removal is best-effort: a leftover sidecar is reported, not fatal.
func (r *Registry) Delete(id string) error {
	mod := r.modules[id]
	if mod == nil {
		return &metadata.NotFoundError{Path: id}
	}

	if err := os.Remove(mod.Path); err != nil {
		return fmt.Errorf("failed to delete module %s: %w", mod.Path, err)
	}

	metaPath := metadata.SidecarPath(mod.Path)
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		r.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "sidecar_remove_failed",
			Message:  "module deleted but its metadata file remains",
			Path:     metaPath,
			Cause:    err,
		})
	}

	delete(r.modules, id)
	return nil
}

// ConvertLegacyToStructured writes a sidecar synthesized from a legacy
// module's embedded blocks. The blocks stay in the content; the sidecar
// takes over as the authoritative metadata from the next load on. An
// already-structured module is returned unchanged.
func (r *Registry) ConvertLegacyToStructured(id string) (*Module, error) {
	mod := r.modules[id]
	if mod == nil {
		return nil, &metadata.NotFoundError{Path: id}
	}
	if mod.Format == types.FormatStructured {
		// Idempotent: converting an already-structured module is a no-op.
		r.reporter.Report(report.Diagnostic{
			Severity: report.SeverityDebug,
			Code:     "already_structured",
			Message:  "module already carries structured metadata",
			Path:     mod.Path,
		})
		return mod, nil
	}

	md := *mod.Raw
	md.Name = mod.ID
	md.ScriptType = mod.ScriptType
	md.ScriptPath = mod.ID
	if md.Categories == nil {
		md.Categories = []string{}
	}
	if err := r.codec.WriteSidecar(mod.Path, &md); err != nil {
		return nil, err
	}
	return r.Load(id)
}

// CreateFromTemplate scaffolds a new module from a template and indexes it.
// The name is sanitized to filesystem-safe characters and gets the
// template's extension appended when missing. Returns the new module id.
func (r *Registry) CreateFromTemplate(templateID, name string, vars map[string]string, md *metadata.Metadata) (string, error) {
	tpl := r.engine.TemplateByID(templateID)
	if tpl == nil {
		return "", &metadata.NotFoundError{Path: templateID}
	}
	if name == "" {
		return "", fmt.Errorf("module name must not be empty")
	}

	id := unsafeNameChars.ReplaceAllString(name, "_")
	if platform.IsWindowsReservedName(id) {
		return "", fmt.Errorf("module name %q is a reserved filename", id)
	}
	if ext := tpl.ScriptType.Extension(); !strings.HasSuffix(id, ext) {
		id += ext
	}

	path := r.modulePath(id)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("module %s already exists", path)
	}

	if md != nil {
		md.ScriptType = tpl.ScriptType
		if md.Name == "" {
			md.Name = id
		}
		if len(md.Categories) == 0 {
			md.Categories = append([]string{}, tpl.Categories...)
		}
	}

	if err := r.engine.CreateModule(templateID, path, vars, md); err != nil {
		return "", err
	}
	if _, err := r.Load(id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Registry) modulePath(id string) string {
	return filepath.Join(r.dir, id)
}

func (r *Registry) writeContent(mod *Module, content string) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(mod.Path); err == nil {
		perm = info.Mode().Perm()
	} else if mod.ScriptType.IsExecutable() {
		perm = 0o755
	}
	if err := fsutil.WriteFileAtomic(mod.Path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write module %s: %w", mod.Path, err)
	}
	return nil
}
