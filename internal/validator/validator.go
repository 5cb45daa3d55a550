// SPDX-License-Identifier: MPL-2.0

package validator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"modkit-cli/internal/metadata"
	"modkit-cli/internal/report"
	"modkit-cli/pkg/types"
)

// DefaultSyntaxCheckTimeout bounds each external syntax-check subprocess.
const DefaultSyntaxCheckTimeout = 10 * time.Second

type (
	// Validator checks module metadata and content. It is stateless and
	// safe to reuse across modules.
	Validator struct {
		timeout  time.Duration
		reporter report.Reporter

		// lookPath resolves a command on the executable search path.
		// Overridable in tests.
		lookPath func(string) (string, error)
	}

	// Option configures a Validator.
	Option func(*Validator)

	// Report is the outcome of validating one module: OK is true when no
	// errors were found. Errors carries one line per problem.
	Report struct {
		OK     bool
		Errors []string
	}
)

// WithTimeout overrides the syntax-check subprocess timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithReporter sets the diagnostic reporter.
func WithReporter(r report.Reporter) Option {
	return func(v *Validator) {
		if r != nil {
			v.reporter = r
		}
	}
}

// withLookPath replaces executable resolution, for tests.
func withLookPath(fn func(string) (string, error)) Option {
	return func(v *Validator) { v.lookPath = fn }
}

// New returns a Validator with the given options applied.
func New(opts ...Option) *Validator {
	v := &Validator{
		timeout:  DefaultSyntaxCheckTimeout,
		reporter: report.Default(),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the module at modulePath. Metadata checks run only when md
// is non-nil (callers resolve metadata separately; validation is not part of
// the load path). Content problems land in the report; only the module file
// being missing or unreadable is an error.
func (v *Validator) Validate(ctx context.Context, modulePath string, md *metadata.Metadata) (Report, error) {
	if _, err := os.Stat(modulePath); err != nil {
		return Report{}, &metadata.NotFoundError{Path: modulePath}
	}

	var errs []string

	scriptType, err := types.ScriptTypeForPath(modulePath)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Unsupported module type: %s", modulePath))
		return Report{OK: false, Errors: errs}, nil
	}

	if md != nil {
		errs = append(errs, v.ValidateMetadata(md)...)
	}

	data, err := os.ReadFile(modulePath)
	if err != nil {
		return Report{}, fmt.Errorf("error reading module file: %w", err)
	}
	errs = append(errs, v.validateContent(ctx, string(data), scriptType, modulePath)...)

	return Report{OK: len(errs) == 0, Errors: errs}, nil
}

// ValidateMetadata applies the metadata rules: required fields, version
// format, and name presence on every files/arguments entry.
func (v *Validator) ValidateMetadata(md *metadata.Metadata) []string {
	var errs []string

	required := []struct {
		field string
		value string
	}{
		{"name", md.Name},
		{"description", md.Description},
		{"version", md.Version.String()},
		{"author", md.Author},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Sprintf("Missing required metadata field: %s", r.field))
		}
	}

	if md.Version != "" {
		if ok, _ := md.Version.IsValid(); !ok {
			errs = append(errs, fmt.Sprintf("Invalid version format (should be X.Y.Z): %s", md.Version))
		}
	}

	for i, f := range md.Files {
		if f.Name == "" {
			errs = append(errs, fmt.Sprintf("Missing 'name' field for file #%d", i+1))
		}
	}
	for i, a := range md.Arguments {
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("Missing 'name' field for argument #%d", i+1))
		}
	}

	return errs
}

// CheckDependencies probes each declared external dependency for a matching
// command on the executable search path. The result is advisory: missing
// dependencies are reported but never block validation.
func (v *Validator) CheckDependencies(md *metadata.Metadata) (bool, []string) {
	if md == nil || len(md.Dependencies) == 0 {
		return true, nil
	}

	var messages []string
	missing := 0
	for _, dep := range md.Dependencies {
		fields := strings.Fields(dep)
		if len(fields) == 0 {
			continue
		}
		cmd := fields[0]
		if _, err := v.lookPath(cmd); err != nil {
			missing++
			messages = append(messages, fmt.Sprintf("Missing dependency: %s", cmd))
		} else {
			messages = append(messages, fmt.Sprintf("Dependency found: %s", cmd))
		}
	}
	return missing == 0, messages
}
