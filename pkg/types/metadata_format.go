// SPDX-License-Identifier: MPL-2.0

package types

type (
	// MetadataFormat states where a module's authoritative metadata lives:
	// embedded in the module content as marker-delimited comment blocks
	// (legacy), or in a sidecar document next to the module file (structured).
	MetadataFormat string
)

const (
	// FormatLegacy means metadata is embedded as comment blocks.
	FormatLegacy MetadataFormat = "legacy"
	// FormatStructured means metadata lives in a sidecar file.
	FormatStructured MetadataFormat = "structured"
)

// String returns the string representation of the MetadataFormat.
func (f MetadataFormat) String() string { return string(f) }
