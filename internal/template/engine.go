// SPDX-License-Identifier: MPL-2.0

package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
)

// ErrNoContent is the sentinel error for templates whose skeleton file is
// missing or unreadable at the moment of use.
var ErrNoContent = errors.New("template content unavailable")

// placeholderRegex matches both interchangeable placeholder syntaxes:
// ${NAME} and bare $NAME (identifier characters only).
var placeholderRegex = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)\}|\$([a-zA-Z0-9_]+)`)

// Engine owns the template catalog and scaffolds modules from skeletons.
type Engine struct {
	dir      string
	manifest Manifest
	codec    *metadata.Codec
	reporter report.Reporter
}

// NewEngine loads the catalog from dir, creating the directory if needed.
func NewEngine(dir string, reporter report.Reporter) (*Engine, error) {
	if reporter == nil {
		reporter = report.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create template directory %s: %w", dir, err)
	}
	return &Engine{
		dir:      dir,
		manifest: loadManifest(dir, reporter),
		codec:    metadata.NewCodec(reporter),
		reporter: reporter,
	}, nil
}

// Dir returns the template root directory.
func (e *Engine) Dir() string { return e.dir }

// Templates returns all catalog entries.
func (e *Engine) Templates() []Template {
	return append([]Template{}, e.manifest.Templates...)
}

// Categories returns all catalog categories.
func (e *Engine) Categories() []Category {
	return append([]Category{}, e.manifest.Categories...)
}

// TemplateByID returns the catalog entry with the given id, or nil.
func (e *Engine) TemplateByID(id string) *Template {
	for i := range e.manifest.Templates {
		if e.manifest.Templates[i].ID == id {
			tpl := e.manifest.Templates[i]
			return &tpl
		}
	}
	return nil
}

// TemplatesByCategory returns the catalog entries tagged with categoryID.
func (e *Engine) TemplatesByCategory(categoryID string) []Template {
	var out []Template
	for _, tpl := range e.manifest.Templates {
		for _, cat := range tpl.Categories {
			if cat == categoryID {
				out = append(out, tpl)
				break
			}
		}
	}
	return out
}

// Content reads the skeleton content for a template. The skeleton file is
// resolved lazily: it must exist now, not at manifest-load time.
func (e *Engine) Content(id string) (string, error) {
	tpl := e.TemplateByID(id)
	if tpl == nil {
		return "", &metadata.NotFoundError{Path: id}
	}
	if tpl.File == "" {
		return "", fmt.Errorf("%w: no skeleton file recorded for template %s", ErrNoContent, id)
	}

	path := filepath.Join(e.dir, tpl.File)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &metadata.NotFoundError{Path: path}
		}
		return "", fmt.Errorf("%w: failed to read %s: %w", ErrNoContent, path, err)
	}
	return string(data), nil
}

// Variables scans a template's content for placeholders and returns the
// de-duplicated names in first-seen order.
func (e *Engine) Variables(id string) ([]string, error) {
	content, err := e.Content(id)
	if err != nil {
		return nil, err
	}
	return ExtractVariables(content), nil
}

// ExtractVariables returns the placeholder names in content, de-duplicated,
// in first-seen order.
func ExtractVariables(content string) []string {
	var names []string
	seen := map[string]bool{}
	for _, match := range placeholderRegex.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if name == "" {
			name = match[2]
		}
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Populate substitutes variables into a template's content. Substitution is
// safe: a placeholder with no supplied value is left intact, and supplied
// variables that appear nowhere are simply unused.
func (e *Engine) Populate(id string, vars map[string]string) (string, error) {
	content, err := e.Content(id)
	if err != nil {
		return "", err
	}
	return Substitute(content, vars), nil
}

// Substitute applies safe placeholder substitution to arbitrary content.
func Substitute(content string, vars map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(content, func(match string) string {
		sub := placeholderRegex.FindStringSubmatch(match)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}
