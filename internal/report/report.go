// SPDX-License-Identifier: MPL-2.0

// Package report defines the diagnostic value type and reporter interface
// shared by the metadata, validator, template, and registry packages.
// Diagnostics are returned or reported as values (rather than written to
// stderr by library code) so bulk operations can collect per-item issues
// without global logger state.
package report

import "log/slog"

const (
	// SeverityDebug records an expected, recoverable event (e.g., the first
	// stage of a parse fallback chain not matching).
	SeverityDebug Severity = "debug"
	// SeverityWarning indicates a recoverable issue the caller should see.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal per-item failure.
	SeverityError Severity = "error"
)

type (
	// Severity represents a diagnostic level.
	Severity string

	// Diagnostic is a structured, non-fatal issue produced by a bulk or
	// fallback operation.
	Diagnostic struct {
		// Severity is the diagnostic level.
		Severity Severity
		// Code is a machine-readable identifier (e.g., "sidecar_yaml_failed").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// Reporter receives diagnostics from library components. Implementations
	// must be safe for reuse across calls but need not be goroutine-safe;
	// all operations in this core are synchronous.
	Reporter interface {
		Report(d Diagnostic)
	}

	// SlogReporter forwards diagnostics to a slog.Logger.
	SlogReporter struct {
		Logger *slog.Logger
	}

	// Collector accumulates diagnostics in memory, for bulk operations
	// and tests.
	Collector struct {
		Diagnostics []Diagnostic
	}
)

// Default returns a reporter backed by the default slog logger.
func Default() Reporter {
	return &SlogReporter{Logger: slog.Default()}
}

// Report implements Reporter by logging at the mapped slog level.
func (r *SlogReporter) Report(d Diagnostic) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"code", d.Code}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}
	if d.Cause != nil {
		attrs = append(attrs, "error", d.Cause)
	}
	switch d.Severity {
	case SeverityDebug:
		logger.Debug(d.Message, attrs...)
	case SeverityWarning:
		logger.Warn(d.Message, attrs...)
	default:
		logger.Error(d.Message, attrs...)
	}
}

// Report implements Reporter by appending to the in-memory list.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// HasSeverity reports whether any collected diagnostic has the given severity.
func (c *Collector) HasSeverity(s Severity) bool {
	for _, d := range c.Diagnostics {
		if d.Severity == s {
			return true
		}
	}
	return false
}
