// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

// versionRegex accepts two- or three-segment numeric versions ("1.0", "1.0.0").
var versionRegex = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

type (
	// Version represents a module version string in X.Y or X.Y.Z form.
	Version string

	// InvalidVersionError is returned when a Version value does not match
	// the X.Y or X.Y.Z format.
	InvalidVersionError struct {
		Value Version
	}
)

// String returns the string representation of the Version.
func (v Version) String() string { return string(v) }

// IsValid returns whether the Version matches the X.Y or X.Y.Z format.
func (v Version) IsValid() (bool, []error) {
	if !versionRegex.MatchString(string(v)) {
		return false, []error{&InvalidVersionError{Value: v}}
	}
	return true, nil
}

// Error implements the error interface for InvalidVersionError.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version format (should be X.Y.Z): %s", e.Value)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }
