// SPDX-License-Identifier: MPL-2.0

package validator

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"modkit-cli/internal/report"
	"modkit-cli/pkg/cueutil"
	"modkit-cli/pkg/types"

	"mvdan.cc/sh/v3/syntax"
)

//go:embed tab_schema.cue
var tabSchema []byte

// pythonDangerPatterns are flagged when found in interpreted script content:
// recursive deletes of root and implicit code evaluation constructs.
var pythonDangerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`os\.system\(['"]rm -rf`),
	regexp.MustCompile(`shutil\.rmtree\(['"]/`),
	regexp.MustCompile(`exec\(['"]`),
	regexp.MustCompile(`eval\(['"]`),
}

type (
	// tabModule mirrors the structured tab-definition document shape.
	tabModule struct {
		Name string `json:"name"`
		Tabs []tab  `json:"tabs"`
	}

	tab struct {
		Title   string `json:"title"`
		Content string `json:"content,omitempty"`
		Script  string `json:"script,omitempty"`
	}
)

func (v *Validator) validateContent(ctx context.Context, content string, st types.ScriptType, modulePath string) []string {
	if strings.TrimSpace(content) == "" {
		return []string{"Module file is empty"}
	}

	switch st {
	case types.ScriptTypeBash:
		return v.validateBash(ctx, content, modulePath)
	case types.ScriptTypePython:
		return v.validatePython(ctx, content, modulePath)
	case types.ScriptTypeJSON:
		return v.validateTabModule(content, modulePath)
	}
	return []string{fmt.Sprintf("Unsupported script type: %s", st)}
}

func (v *Validator) validateBash(ctx context.Context, content, modulePath string) []string {
	var errs []string

	if !strings.HasPrefix(content, "#!/bin/bash") && !strings.HasPrefix(content, "#!/bin/sh") {
		errs = append(errs, "Bash script should start with #!/bin/bash or #!/bin/sh")
	}

	if diag := v.checkShellSyntax(ctx, content, modulePath); diag != "" {
		errs = append(errs, diag)
	}

	if strings.Contains(content, "rm -rf /") || strings.Contains(content, "rm -rf /*") {
		errs = append(errs, "Dangerous command detected: rm -rf / or rm -rf /*")
	}

	return errs
}

// checkShellSyntax runs the shell's own no-execute check (bash -n) under the
// configured timeout, surfacing its stderr verbatim. When no shell binary is
// resolvable the in-process parser takes over so the check never silently
// disappears.
func (v *Validator) checkShellSyntax(ctx context.Context, content, modulePath string) string {
	shell, err := v.lookPath("bash")
	if err != nil {
		shell, err = v.lookPath("sh")
	}
	if err != nil {
		if _, perr := syntax.NewParser().Parse(strings.NewReader(content), modulePath); perr != nil {
			return fmt.Sprintf("Bash syntax error: %s", perr)
		}
		return ""
	}

	stderr, err := v.runNoExecuteCheck(ctx, content, "*.sh", shell, "-n")
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Error checking bash syntax: check timed out after %s", v.timeout)
	case stderr != "":
		return fmt.Sprintf("Bash syntax error: %s", stderr)
	default:
		return fmt.Sprintf("Error checking bash syntax: %s", err)
	}
}

func (v *Validator) validatePython(ctx context.Context, content, modulePath string) []string {
	var errs []string

	if !strings.HasPrefix(content, "#!/usr/bin/env python") && !strings.HasPrefix(content, "#!/usr/bin/python") {
		errs = append(errs, "Python script should start with #!/usr/bin/env python or #!/usr/bin/python")
	}

	if diag := v.checkPythonSyntax(ctx, content, modulePath); diag != "" {
		errs = append(errs, diag)
	}

	for _, pattern := range pythonDangerPatterns {
		if pattern.MatchString(content) {
			errs = append(errs, fmt.Sprintf("Potentially dangerous code pattern detected: %s", pattern))
		}
	}

	return errs
}

// checkPythonSyntax parses the script with the interpreter's own AST parser.
// A missing interpreter downgrades the check to a diagnostic: there is no
// in-process substitute for the language's parser.
func (v *Validator) checkPythonSyntax(ctx context.Context, content, modulePath string) string {
	python, err := v.lookPath("python3")
	if err != nil {
		python, err = v.lookPath("python")
	}
	if err != nil {
		v.reporter.Report(report.Diagnostic{
			Severity: report.SeverityWarning,
			Code:     "python_check_skipped",
			Message:  "python interpreter not found; syntax check skipped",
			Path:     modulePath,
		})
		return ""
	}

	stderr, err := v.runNoExecuteCheck(ctx, content, "*.py", python,
		"-c", "import ast, sys; ast.parse(open(sys.argv[1]).read())")
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Error checking python syntax: check timed out after %s", v.timeout)
	case stderr != "":
		return fmt.Sprintf("Python syntax error: %s", stderr)
	default:
		return fmt.Sprintf("Error checking python syntax: %s", err)
	}
}

// runNoExecuteCheck writes content to a temp file and runs the checker
// against it with the file path appended as the final argument. The stderr
// text is returned trimmed for verbatim surfacing.
func (v *Validator) runNoExecuteCheck(ctx context.Context, content, pattern, bin string, args ...string) (string, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, append(args, tmpName)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return strings.TrimSpace(stderr.String()), context.DeadlineExceeded
	}
	return strings.TrimSpace(stderr.String()), runErr
}

func (v *Validator) validateTabModule(content, modulePath string) []string {
	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return []string{fmt.Sprintf("Invalid JSON: %s", err)}
	}

	var errs []string

	for _, field := range []string{"name", "tabs"} {
		if _, present := doc[field]; !present {
			errs = append(errs, fmt.Sprintf("Missing required field in JSON module: %s", field))
		}
	}

	if rawTabs, present := doc["tabs"]; present {
		tabs, isList := rawTabs.([]any)
		if !isList {
			errs = append(errs, "'tabs' field must be an array")
		} else {
			for i, entry := range tabs {
				tabDoc, isMap := entry.(map[string]any)
				if !isMap {
					errs = append(errs, fmt.Sprintf("Tab #%d must be an object", i+1))
					continue
				}
				if _, hasTitle := tabDoc["title"]; !hasTitle {
					errs = append(errs, fmt.Sprintf("Tab #%d missing 'title' field", i+1))
				}
				_, hasContent := tabDoc["content"]
				_, hasScript := tabDoc["script"]
				if !hasContent && !hasScript {
					errs = append(errs, fmt.Sprintf("Tab #%d must have either 'content' or 'script' field", i+1))
				}
			}
		}
	}

	// Field-type enforcement beyond presence goes through the schema.
	if len(errs) == 0 {
		_, err := cueutil.DecodeWithSchema[tabModule](tabSchema, []byte(content), "#TabModule",
			cueutil.WithFilename(filepath.Base(modulePath)))
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
