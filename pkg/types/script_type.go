// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnsupportedScriptType is the sentinel error wrapped by UnsupportedScriptTypeError.
var ErrUnsupportedScriptType = errors.New("unsupported script type")

type (
	// ScriptType identifies what kind of payload a module file carries:
	// a bash script, a python script, or a structured tab definition.
	ScriptType string

	// UnsupportedScriptTypeError is returned when a file extension or
	// script-type label does not map to a known ScriptType.
	UnsupportedScriptTypeError struct {
		Value string
	}
)

const (
	// ScriptTypeBash is a shell script module (.sh).
	ScriptTypeBash ScriptType = "bash"
	// ScriptTypePython is an interpreted script module (.py).
	ScriptTypePython ScriptType = "python"
	// ScriptTypeJSON is a structured tab-definition module (.json).
	ScriptTypeJSON ScriptType = "json"
)

// scriptTypesByExt maps recognized module file extensions to script types.
var scriptTypesByExt = map[string]ScriptType{
	".sh":   ScriptTypeBash,
	".py":   ScriptTypePython,
	".json": ScriptTypeJSON,
}

// ScriptTypeForPath derives the script type from a module path's extension.
func ScriptTypeForPath(path string) (ScriptType, error) {
	ext := filepath.Ext(path)
	st, ok := scriptTypesByExt[ext]
	if !ok {
		return "", &UnsupportedScriptTypeError{Value: ext}
	}
	return st, nil
}

// IsModulePath reports whether the path carries a recognized module extension.
func IsModulePath(path string) bool {
	_, ok := scriptTypesByExt[filepath.Ext(path)]
	return ok
}

// String returns the string representation of the ScriptType.
func (s ScriptType) String() string { return string(s) }

// IsValid returns whether the ScriptType is one of the known types.
func (s ScriptType) IsValid() (bool, []error) {
	switch s {
	case ScriptTypeBash, ScriptTypePython, ScriptTypeJSON:
		return true, nil
	}
	return false, []error{&UnsupportedScriptTypeError{Value: string(s)}}
}

// Extension returns the module file extension for the script type,
// including the leading dot. Unknown types map to ".txt".
func (s ScriptType) Extension() string {
	switch s {
	case ScriptTypeBash:
		return ".sh"
	case ScriptTypePython:
		return ".py"
	case ScriptTypeJSON:
		return ".json"
	}
	return ".txt"
}

// IsExecutable reports whether modules of this type are marked executable
// when written to disk.
func (s ScriptType) IsExecutable() bool {
	return s == ScriptTypeBash || s == ScriptTypePython
}

// Error implements the error interface for UnsupportedScriptTypeError.
func (e *UnsupportedScriptTypeError) Error() string {
	return fmt.Sprintf("unsupported script type %q", e.Value)
}

// Unwrap returns ErrUnsupportedScriptType for errors.Is() compatibility.
func (e *UnsupportedScriptTypeError) Unwrap() error { return ErrUnsupportedScriptType }
