// SPDX-License-Identifier: MPL-2.0

// Package metadata parses and serializes module metadata in both supported
// encodings: the legacy marker-delimited comment blocks embedded in module
// content, and the structured sidecar document stored at <module>.meta.
//
// Format detection is by sidecar presence: if <module>.meta exists the
// module is structured and the sidecar is authoritative, even when stale
// legacy blocks remain in the content. Structured parsing runs a three-stage
// fallback chain (YAML, then JSON, then a line-oriented key/value scanner);
// stage failures are expected and reported as diagnostics, not errors.
package metadata
