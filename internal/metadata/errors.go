// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel error wrapped by NotFoundError.
// ErrParse is the sentinel error wrapped by ParseError.
var (
	ErrNotFound = errors.New("file not found")
	ErrParse    = errors.New("metadata parse failed")
)

type (
	// NotFoundError is returned when a module or sidecar file is absent.
	NotFoundError struct {
		Path string
	}

	// ParseError is returned when no stage of the metadata fallback chain
	// produced usable data, or when parsed metadata fails required-field
	// validation.
	ParseError struct {
		// Path is the file whose metadata could not be parsed.
		Path string
		// Reason describes what went wrong.
		Reason string
		// Cause is the underlying error (optional).
		Cause error
	}
)

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing metadata file %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrParse for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrParse }
