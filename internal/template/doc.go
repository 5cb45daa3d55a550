// SPDX-License-Identifier: MPL-2.0

// Package template maintains the catalog of module templates and scaffolds
// new modules from them.
//
// The catalog is a single manifest file under the template root; it is the
// source of truth for which templates exist. Template content lives in
// separate skeleton files that are resolved lazily, at the moment of use.
// Placeholder substitution is safe: a placeholder with no supplied value is
// left intact rather than erased.
package template
