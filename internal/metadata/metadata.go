// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"modkit-cli/pkg/types"
)

// Sidecar document keys recognized by the codec. Anything else round-trips
// through Metadata.Extra untouched.
const (
	keyName           = "name"
	keyDescription    = "description"
	keyVersion        = "version"
	keyAuthor         = "author"
	keyScriptType     = "script_type"
	keyScriptPath     = "script_path"
	keyTemplate       = "template"
	keyFiles          = "files"
	keyArguments      = "arguments"
	keyNessusFindings = "nessus_findings"
	keyCategories     = "categories"
	keyDependencies   = "dependencies"
)

type (
	// InputSpec declares an external input a module expects at run time:
	// either a file to be staged alongside it or a CLI argument.
	InputSpec struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Required    bool   `yaml:"required"`
	}

	// Metadata is a module's resolved metadata, independent of which
	// encoding it was parsed from. Required fields are strongly typed;
	// unrecognized sidecar keys are preserved in Extra so a parse/serialize
	// round trip never drops data.
	Metadata struct {
		Name        string
		Description string
		Version     types.Version
		Author      string
		ScriptType  types.ScriptType
		ScriptPath  string
		Template    string
		Files       []InputSpec
		Arguments   []InputSpec
		// NessusFindings links the module to known finding titles.
		NessusFindings []string
		Categories     []string
		// Dependencies lists external commands the module shells out to.
		Dependencies []string
		// Extra holds unrecognized sidecar keys, re-emitted on write.
		Extra map[string]any
	}
)

// fromDocument builds a Metadata from a parsed sidecar document.
// The document is assumed to have passed required-field validation.
func fromDocument(doc map[string]any) *Metadata {
	md := &Metadata{}
	for key, value := range doc {
		switch key {
		case keyName:
			md.Name = coerceString(value)
		case keyDescription:
			md.Description = coerceString(value)
		case keyVersion:
			md.Version = types.Version(coerceString(value))
		case keyAuthor:
			md.Author = coerceString(value)
		case keyScriptType:
			md.ScriptType = types.ScriptType(coerceString(value))
		case keyScriptPath:
			md.ScriptPath = coerceString(value)
		case keyTemplate:
			md.Template = coerceString(value)
		case keyFiles:
			md.Files = coerceInputSpecs(value)
		case keyArguments:
			md.Arguments = coerceInputSpecs(value)
		case keyNessusFindings:
			md.NessusFindings = coerceStrings(value)
		case keyCategories:
			md.Categories = coerceStrings(value)
		case keyDependencies:
			md.Dependencies = coerceStrings(value)
		default:
			if md.Extra == nil {
				md.Extra = map[string]any{}
			}
			md.Extra[key] = value
		}
	}
	return md
}

// ToDocument converts the metadata back into a sidecar document, merging
// Extra keys. Lists are emitted whenever non-nil so an explicitly empty
// list survives a round trip.
func (m *Metadata) ToDocument() map[string]any {
	doc := map[string]any{
		keyName:        m.Name,
		keyDescription: m.Description,
		keyVersion:     m.Version.String(),
		keyAuthor:      m.Author,
	}
	if m.ScriptType != "" {
		doc[keyScriptType] = m.ScriptType.String()
	}
	if m.ScriptPath != "" {
		doc[keyScriptPath] = m.ScriptPath
	}
	if m.Template != "" {
		doc[keyTemplate] = m.Template
	}
	if m.Files != nil {
		doc[keyFiles] = inputSpecsToDocs(m.Files)
	}
	if m.Arguments != nil {
		doc[keyArguments] = inputSpecsToDocs(m.Arguments)
	}
	if m.NessusFindings != nil {
		doc[keyNessusFindings] = append([]string{}, m.NessusFindings...)
	}
	if m.Categories != nil {
		doc[keyCategories] = append([]string{}, m.Categories...)
	}
	if m.Dependencies != nil {
		doc[keyDependencies] = append([]string{}, m.Dependencies...)
	}
	for _, key := range sortedKeys(m.Extra) {
		if _, taken := doc[key]; !taken {
			doc[key] = m.Extra[key]
		}
	}
	return doc
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func inputSpecsToDocs(specs []InputSpec) []map[string]any {
	docs := make([]map[string]any, 0, len(specs))
	for _, s := range specs {
		docs = append(docs, map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"required":    s.Required,
		})
	}
	return docs
}

// coerceString renders a scalar sidecar value as a string. Unquoted numeric
// versions ("version: 1.0") decode as floats; whole floats keep one decimal
// place so "1.0" survives the trip.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatFloat(t, 'f', 1, 64)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if ss, isStrings := v.([]string); isStrings {
			return append([]string{}, ss...)
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, coerceString(item))
	}
	return out
}

func coerceInputSpecs(v any) []InputSpec {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	specs := make([]InputSpec, 0, len(items))
	for _, item := range items {
		entry, isMap := toStringMap(item)
		if !isMap {
			continue
		}
		spec := InputSpec{
			Name:        coerceString(entry["name"]),
			Description: coerceString(entry["description"]),
			Required:    true,
		}
		if req, present := entry["required"]; present {
			if b, isBool := req.(bool); isBool {
				spec.Required = b
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// toStringMap normalizes the two map shapes the YAML and JSON decoders
// produce for nested objects.
func toStringMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[coerceString(k)] = val
		}
		return out, true
	}
	return nil, false
}
