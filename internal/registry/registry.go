// SPDX-License-Identifier: MPL-2.0

// Package registry maintains the in-memory index of testing modules and
// carries out their lifecycle: discovery, scaffolding, metadata rewrites,
// legacy conversion, and removal.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
	"modkit-cli/internal/template"
	"modkit-cli/internal/validator"
	"modkit-cli/pkg/types"
)

type (
	// Module is one loaded testing module: the file content plus its
	// resolved metadata, in whichever format the module carries it.
	Module struct {
		// ID is the module path relative to the module root, the unique
		// index key.
		ID          string
		Path        string
		Name        string
		Description string
		Version     types.Version
		Author      string
		ScriptType  types.ScriptType
		Content     string
		Files       []metadata.InputSpec
		Arguments   []metadata.InputSpec
		FindingTags []string
		Categories  []string
		Format      types.MetadataFormat
		// Raw is the full resolved metadata, including extra sidecar keys.
		Raw *metadata.Metadata
	}

	// Options configures a Registry.
	Options struct {
		// ModulesDir is the module root. Created if missing.
		ModulesDir string
		// TemplatesDir is the template root. Created if missing.
		TemplatesDir string
		Reporter     report.Reporter
		Validator    *validator.Validator
	}

	// Registry indexes the modules under a single root directory. It is
	// not safe for concurrent mutation; callers serialize above it.
	Registry struct {
		dir       string
		codec     *metadata.Codec
		engine    *template.Engine
		validator *validator.Validator
		reporter  report.Reporter
		modules   map[string]*Module
	}
)

// New builds a Registry over opts.ModulesDir and loads every module found
// there. Per-module failures are reported and skipped; New fails only if
// the directories cannot be created or the template catalog cannot open.
func New(opts Options) (*Registry, error) {
	if opts.Reporter == nil {
		opts.Reporter = report.Default()
	}
	if opts.ModulesDir == "" {
		return nil, fmt.Errorf("modules directory must not be empty")
	}
	if opts.TemplatesDir == "" {
		opts.TemplatesDir = filepath.Join(opts.ModulesDir, "templates")
	}
	if err := os.MkdirAll(opts.ModulesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create modules directory %s: %w", opts.ModulesDir, err)
	}

	engine, err := template.NewEngine(opts.TemplatesDir, opts.Reporter)
	if err != nil {
		return nil, err
	}

	v := opts.Validator
	if v == nil {
		v = validator.New(validator.WithReporter(opts.Reporter))
	}

	r := &Registry{
		dir:       opts.ModulesDir,
		codec:     metadata.NewCodec(opts.Reporter),
		engine:    engine,
		validator: v,
		reporter:  opts.Reporter,
		modules:   map[string]*Module{},
	}
	r.LoadAll()
	return r, nil
}

// Dir returns the module root directory.
func (r *Registry) Dir() string { return r.dir }

// Templates returns the template engine backing CreateFromTemplate.
func (r *Registry) Templates() *template.Engine { return r.engine }

// Validator returns the validator used for module checks.
func (r *Registry) Validator() *validator.Validator { return r.validator }

// LoadAll rebuilds the index from disk. Sidecar files and files with
// unrecognized extensions are skipped; a module that fails to load is
// reported and excluded, never fatal.
func (r *Registry) LoadAll() {
	r.modules = map[string]*Module{}

	walkErr := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// One unreadable entry must not abort the scan.
			r.reporter.Report(report.Diagnostic{
				Severity: report.SeverityWarning,
				Code:     "module_scan_skipped",
				Message:  "failed to scan path, skipping",
				Path:     path,
				Cause:    err,
			})
			return nil
		}
		if d.IsDir() {
			if path == r.engine.Dir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, metadata.SidecarSuffix) || !types.IsModulePath(path) {
			return nil
		}

		mod, loadErr := r.load(path)
		if loadErr != nil {
			r.reporter.Report(report.Diagnostic{
				Severity: report.SeverityError,
				Code:     "module_load_failed",
				Message:  "failed to load module",
				Path:     path,
				Cause:    loadErr,
			})
			return nil
		}
		r.modules[mod.ID] = mod
		return nil
	})
	if walkErr != nil {
		r.reporter.Report(report.Diagnostic{
			Severity: report.SeverityError,
			Code:     "module_scan_failed",
			Message:  "failed to scan modules directory",
			Path:     r.dir,
			Cause:    walkErr,
		})
	}
}

// Load reads one module by id from disk, indexes it, and returns it.
func (r *Registry) Load(id string) (*Module, error) {
	mod, err := r.load(r.modulePath(id))
	if err != nil {
		return nil, err
	}
	r.modules[mod.ID] = mod
	return mod, nil
}

// RefreshModule is Load for an already-indexed module: it re-reads the id
// from disk, dropping the index entry if the file disappeared.
func (r *Registry) RefreshModule(id string) (*Module, error) {
	mod, err := r.Load(id)
	if err != nil {
		delete(r.modules, id)
		return nil, err
	}
	return mod, nil
}

func (r *Registry) load(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &metadata.NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read module at %s: %w", path, err)
	}
	content := string(data)

	md, format, err := r.codec.Resolve(path)
	if err != nil {
		// A sidecar that cannot be parsed does not kill the module:
		// fall back to whatever legacy blocks the content carries.
		r.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "metadata_fallback_legacy",
			Message:  "structured metadata unusable, falling back to embedded blocks",
			Path:     path,
			Cause:    err,
		})
		md = metadata.ParseLegacy(content)
		md.Name = filepath.Base(path)
		format = types.FormatLegacy
	}
	if st, stErr := types.ScriptTypeForPath(path); stErr == nil && md.ScriptType == "" {
		md.ScriptType = st
	}

	// The id is the path relative to the registry root, so nested modules
	// with colliding base names stay distinct and re-resolve correctly.
	id, relErr := filepath.Rel(r.dir, path)
	if relErr != nil {
		id = filepath.Base(path)
	}

	return &Module{
		ID:          id,
		Path:        path,
		Name:        md.Name,
		Description: md.Description,
		Version:     md.Version,
		Author:      md.Author,
		ScriptType:  md.ScriptType,
		Content:     content,
		Files:       md.Files,
		Arguments:   md.Arguments,
		FindingTags: md.NessusFindings,
		Categories:  md.Categories,
		Format:      format,
		Raw:         md,
	}, nil
}

// ModuleByID returns the indexed module with the given id, or nil.
func (r *Registry) ModuleByID(id string) *Module {
	return r.modules[id]
}

// Modules returns every indexed module sorted by id.
func (r *Registry) Modules() []*Module {
	out := make([]*Module, 0, len(r.modules))
	for _, mod := range r.modules {
		out = append(out, mod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByCategory returns the structured modules tagged with the category.
// Legacy modules have no category channel and never match.
func (r *Registry) ByCategory(category string) []*Module {
	var out []*Module
	for _, mod := range r.Modules() {
		if mod.Format != types.FormatStructured {
			continue
		}
		for _, cat := range mod.Categories {
			if cat == category {
				out = append(out, mod)
				break
			}
		}
	}
	return out
}

// ByFinding returns the modules whose finding tags contain the given text,
// case-insensitively.
func (r *Registry) ByFinding(finding string) []*Module {
	needle := strings.ToLower(finding)
	var out []*Module
	for _, mod := range r.Modules() {
		for _, tag := range mod.FindingTags {
			if strings.Contains(strings.ToLower(tag), needle) {
				out = append(out, mod)
				break
			}
		}
	}
	return out
}
