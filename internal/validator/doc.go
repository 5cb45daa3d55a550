// SPDX-License-Identifier: MPL-2.0

// Package validator checks modules for structural and content problems:
// required metadata fields, version format, per-script-type syntax, known
// dangerous command patterns, and resolvability of declared external
// dependencies.
//
// Content problems are reported as values (a Report with one string per
// finding), never as errors; errors are reserved for I/O failures on the
// module path itself. Syntax checks that shell out run under a bounded
// timeout.
package validator
