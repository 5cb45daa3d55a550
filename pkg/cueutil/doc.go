// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE schema-validation utilities.
//
// The package consolidates the 3-step CUE validation pattern used by the
// validator for structured tab modules:
//
//  1. Compile the embedded schema
//  2. Compile the document (JSON is a subset of CUE) and unify with the schema
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed tab_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.DecodeWithSchema[TabModule](
//	    schemaBytes,
//	    documentBytes,
//	    "#TabModule",
//	    cueutil.WithFilename("recon.json"),
//	)
//	if err != nil {
//	    return err // error includes the CUE path of the offending field
//	}
package cueutil
