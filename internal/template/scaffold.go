// SPDX-License-Identifier: MPL-2.0

package template

import (
	"fmt"
	"os"
	"path/filepath"

	"modkit-cli/internal/fsutil"
	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
	"modkit-cli/pkg/types"
)

// CreateModule scaffolds a new module file from a template. Population
// happens before any filesystem write, so a missing template or unreadable
// skeleton leaves no partial output behind. When md is non-nil a structured
// sidecar is written next to the module, stamping in the template id unless
// the caller already set one; a sidecar-write failure after the module
// write is surfaced but leaves the module file in place.
func (e *Engine) CreateModule(templateID, destPath string, vars map[string]string, md *metadata.Metadata) error {
	tpl := e.TemplateByID(templateID)
	if tpl == nil {
		return &metadata.NotFoundError{Path: templateID}
	}

	content, err := e.Populate(templateID, vars)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	perm := os.FileMode(0o644)
	if tpl.ScriptType.IsExecutable() {
		perm = 0o755
	}
	if err := fsutil.WriteFileAtomic(destPath, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write module %s: %w", destPath, err)
	}

	if md == nil {
		return nil
	}
	if md.Template == "" {
		md.Template = templateID
	}
	if md.ScriptType == "" {
		md.ScriptType = tpl.ScriptType
	}
	if err := e.codec.WriteSidecar(destPath, md); err != nil {
		e.reporter.Report(report.Diagnostic{
			Severity: report.SeverityError,
			Code:     "sidecar_write_failed",
			Message:  "module created but metadata write failed",
			Path:     destPath,
			Cause:    err,
		})
		return fmt.Errorf("module %s created but metadata write failed: %w", destPath, err)
	}
	return nil
}

// CreateOptions describes a new template to register in the catalog.
type CreateOptions struct {
	ID          string
	Name        string
	Description string
	Content     string
	ScriptType  types.ScriptType
	Categories  []string
	Complexity  string
	// RequiresFiles marks the template's modules as expecting staged files.
	RequiresFiles bool
}

// CreateTemplate writes a new skeleton file and registers it in the
// catalog. The skeleton lands at <id>_template<ext> under the template
// root.
func (e *Engine) CreateTemplate(opts CreateOptions) (*Template, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("template id must not be empty")
	}
	if ok, errs := opts.ScriptType.IsValid(); !ok {
		return nil, errs[0]
	}
	if e.TemplateByID(opts.ID) != nil {
		return nil, fmt.Errorf("template with ID '%s' already exists", opts.ID)
	}

	fileName := opts.ID + "_template" + opts.ScriptType.Extension()
	path := filepath.Join(e.dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("template file %s already exists", path)
	}

	if err := fsutil.WriteFileAtomic(path, []byte(opts.Content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write template file %s: %w", path, err)
	}

	tpl := Template{
		ID:            opts.ID,
		Name:          opts.Name,
		Description:   opts.Description,
		File:          fileName,
		ScriptType:    opts.ScriptType,
		Categories:    append([]string{}, opts.Categories...),
		Variables:     ExtractVariables(opts.Content),
		Complexity:    opts.Complexity,
		RequiresFiles: opts.RequiresFiles,
	}
	e.manifest.Templates = append(e.manifest.Templates, tpl)
	if err := saveManifest(e.dir, e.manifest); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// DeleteTemplate removes a template from the catalog. The skeleton file
// removal is best-effort: a failure there is reported but does not keep the
// catalog entry alive.
func (e *Engine) DeleteTemplate(id string) error {
	tpl := e.TemplateByID(id)
	if tpl == nil {
		return &metadata.NotFoundError{Path: id}
	}

	if tpl.File != "" {
		path := filepath.Join(e.dir, tpl.File)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.reporter.Report(report.Diagnostic{
				Severity: report.SeverityWarning,
				Code:     "template_file_remove_failed",
				Message:  "failed to remove template file",
				Path:     path,
				Cause:    err,
			})
		}
	}

	kept := e.manifest.Templates[:0]
	for _, t := range e.manifest.Templates {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	e.manifest.Templates = kept
	return saveManifest(e.dir, e.manifest)
}

// AddCategory registers a new grouping label in the catalog.
func (e *Engine) AddCategory(id, name, description string) error {
	for _, cat := range e.manifest.Categories {
		if cat.ID == id {
			return fmt.Errorf("category with ID '%s' already exists", id)
		}
	}
	e.manifest.Categories = append(e.manifest.Categories, Category{
		ID:          id,
		Name:        name,
		Description: description,
	})
	return saveManifest(e.dir, e.manifest)
}
