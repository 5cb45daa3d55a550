// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modkit-cli/internal/report"
	"modkit-cli/pkg/types"

	"gopkg.in/yaml.v3"
)

// SidecarSuffix is appended to a module path to name its sidecar file.
const SidecarSuffix = ".meta"

// requiredKeys must be present in any non-empty structured document.
var requiredKeys = []string{keyName, keyDescription, keyVersion, keyAuthor}

// Codec resolves module metadata from either encoding. It is stateless;
// the reporter receives fallback-chain and degradation diagnostics.
type Codec struct {
	reporter report.Reporter
}

// NewCodec returns a codec reporting through r (slog-backed default if nil).
func NewCodec(r report.Reporter) *Codec {
	if r == nil {
		r = report.Default()
	}
	return &Codec{reporter: r}
}

// SidecarPath returns the sidecar file path for a module path.
func SidecarPath(modulePath string) string {
	return modulePath + SidecarSuffix
}

// Resolve parses the metadata for the module at modulePath, detecting the
// encoding automatically: a sidecar file present means structured, otherwise
// the content's embedded legacy blocks are scanned. For legacy modules the
// name is stamped from the filename and the script type from the extension.
func (c *Codec) Resolve(modulePath string) (*Metadata, types.MetadataFormat, error) {
	if _, err := os.Stat(modulePath); err != nil {
		return nil, "", &NotFoundError{Path: modulePath}
	}

	metaPath := SidecarPath(modulePath)
	if _, err := os.Stat(metaPath); err == nil {
		md, parseErr := c.ParseSidecar(metaPath)
		if parseErr != nil {
			return nil, types.FormatStructured, parseErr
		}
		return md, types.FormatStructured, nil
	}

	data, err := os.ReadFile(modulePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read module at %s: %w", modulePath, err)
	}

	md := ParseLegacy(string(data))
	md.Name = filepath.Base(modulePath)
	if st, stErr := types.ScriptTypeForPath(modulePath); stErr == nil {
		md.ScriptType = st
	}
	return md, types.FormatLegacy, nil
}

// ParseSidecar parses a structured sidecar file through the fallback chain.
func (c *Codec) ParseSidecar(metaPath string) (*Metadata, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: metaPath}
		}
		return nil, fmt.Errorf("failed to read metadata file %s: %w", metaPath, err)
	}
	md, _, err := c.parseSidecarBytes(data, metaPath)
	return md, err
}

// parseSidecarBytes runs the fallback chain and validates the result.
// The returned stage records which chain stage produced the document
// (0 means the file was empty and no stage ran).
func (c *Codec) parseSidecarBytes(data []byte, metaPath string) (*Metadata, int, error) {
	content := strings.TrimSpace(string(data))
	if content == "" {
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "sidecar_empty",
			Message:  "empty metadata file",
			Path:     metaPath,
		})
		return &Metadata{}, 0, nil
	}

	doc, stage, err := c.decodeStructured(content, metaPath)
	if err != nil {
		return nil, stage, err
	}

	if len(doc) == 0 {
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "sidecar_empty_document",
			Message:  "metadata document is empty",
			Path:     metaPath,
		})
		return &Metadata{}, stage, nil
	}

	if err := validateDocument(doc, metaPath); err != nil {
		return nil, stage, err
	}
	return fromDocument(doc), stage, nil
}

// decodeStructured attempts YAML, then JSON, then the simple key/value
// scanner, in that order. Only the exhaustion of all three stages is an
// error; individual stage failures are reported at decreasing severity
// since they are expected occurrences.
func (c *Codec) decodeStructured(content, metaPath string) (map[string]any, int, error) {
	ext := filepath.Ext(metaPath)
	if ext == ".yaml" || ext == ".yml" || ext == SidecarSuffix {
		if doc, ok := c.tryYAML(content, metaPath); ok {
			return doc, 1, nil
		}
	}

	if doc, ok := c.tryJSON(content, metaPath); ok {
		return doc, 2, nil
	}

	doc := parseSimpleKeyValue(content)
	if len(doc) == 0 {
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityError,
			Code:     "sidecar_unparseable",
			Message:  "no parse stage produced usable metadata",
			Path:     metaPath,
		})
		return nil, 3, &ParseError{
			Path:   metaPath,
			Reason: "failed to parse metadata file with all available methods",
		}
	}
	c.reporter.Report(report.Diagnostic{
		Severity: report.SeverityWarning,
		Code:     "sidecar_simple_key_value",
		Message:  "metadata parsed with the last-resort key/value scanner",
		Path:     metaPath,
	})
	return doc, 3, nil
}

func (c *Codec) tryYAML(content, metaPath string) (map[string]any, bool) {
	var value any
	if err := yaml.Unmarshal([]byte(content), &value); err != nil {
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityDebug,
			Code:     "sidecar_yaml_failed",
			Message:  "failed to parse metadata as YAML",
			Path:     metaPath,
			Cause:    err,
		})
		return nil, false
	}
	if value == nil {
		// Comment-only documents decode to nil; treat as an empty document.
		return map[string]any{}, true
	}
	doc, ok := toStringMap(value)
	if !ok {
		// A bare scalar or sequence parses as YAML but is not metadata.
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityDebug,
			Code:     "sidecar_yaml_not_mapping",
			Message:  "YAML document is not a mapping",
			Path:     metaPath,
		})
		return nil, false
	}
	return doc, true
}

func (c *Codec) tryJSON(content, metaPath string) (map[string]any, bool) {
	doc, err := decodeJSONObject(content)
	if err != nil {
		c.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "sidecar_json_failed",
			Message:  "failed to parse metadata as JSON",
			Path:     metaPath,
			Cause:    err,
		})
		return nil, false
	}
	return doc, true
}

// parseSimpleKeyValue is the last-resort line scanner: non-empty, non-comment
// lines hold "key: value" pairs, or (when the value is empty) open an ordered
// list context that subsequent "- item" lines append to. It never fails; an
// unrecognized line is silently skipped.
func parseSimpleKeyValue(content string) map[string]any {
	result := map[string]any{}
	var currentList *[]string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if item, isItem := strings.CutPrefix(line, "- "); isItem {
			if currentList != nil {
				*currentList = append(*currentList, item)
			}
			continue
		}

		key, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			list := []string{}
			currentList = &list
			result[key] = currentList
			continue
		}
		result[key] = value
		currentList = nil
	}

	// Dereference list pointers accumulated during the scan.
	for key, value := range result {
		if list, isList := value.(*[]string); isList {
			result[key] = *list
		}
	}
	return result
}

// validateDocument enforces the structural rules every structured document
// must satisfy before it becomes a Metadata value.
func validateDocument(doc map[string]any, metaPath string) error {
	for _, key := range requiredKeys {
		if _, present := doc[key]; !present {
			return &ParseError{
				Path:   metaPath,
				Reason: fmt.Sprintf("missing required metadata field: %s", key),
			}
		}
	}
	for _, key := range []string{keyFiles, keyArguments} {
		value, present := doc[key]
		if !present {
			continue
		}
		items, isList := value.([]any)
		if !isList {
			return &ParseError{
				Path:   metaPath,
				Reason: fmt.Sprintf("invalid format for %q metadata: expected a list", key),
			}
		}
		for _, item := range items {
			entry, isMap := toStringMap(item)
			if !isMap {
				return &ParseError{
					Path:   metaPath,
					Reason: fmt.Sprintf("invalid format for %q metadata: each entry must be an object", key),
				}
			}
			if _, hasName := entry["name"]; !hasName {
				return &ParseError{
					Path:   metaPath,
					Reason: fmt.Sprintf("invalid format for %q metadata: each entry must have at least a \"name\" field", key),
				}
			}
		}
	}
	return nil
}
