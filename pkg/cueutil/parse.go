// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// defaultMaxDocumentSize bounds document size to keep a hostile file from
// exhausting memory during compilation.
const defaultMaxDocumentSize int64 = 1 << 20 // 1 MiB

type (
	// Option configures a DecodeWithSchema call.
	Option func(*options)

	options struct {
		filename        string
		maxDocumentSize int64
	}

	// Result contains the outcome of a successful schema-validated decode.
	Result[T any] struct {
		// Value is the decoded Go struct.
		Value *T

		// Unified is the unified CUE value, available for callers that need
		// to inspect fields beyond what the struct captures.
		Unified cue.Value
	}
)

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxDocumentSize overrides the default document size limit.
func WithMaxDocumentSize(n int64) Option {
	return func(o *options) { o.maxDocumentSize = n }
}

// DecodeWithSchema validates a structured document against an embedded CUE
// schema and decodes it into T. The document may be CUE or JSON (JSON is a
// subset of CUE). The schemaPath names the root definition within the schema
// (e.g. "#TabModule").
func DecodeWithSchema[T any](schema, document []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	o := options{maxDocumentSize: defaultMaxDocumentSize}
	for _, opt := range opts {
		opt(&o)
	}
	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if int64(len(document)) > o.maxDocumentSize {
		return nil, fmt.Errorf("%s: document size %d bytes exceeds maximum %d bytes",
			filename, len(document), o.maxDocumentSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	docValue := ctx.CompileBytes(document, cue.Filename(filename))
	if docValue.Err() != nil {
		return nil, FormatError(docValue.Err(), filename)
	}

	unified := schemaRoot.Unify(docValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, FormatError(err, filename)
	}

	var value T
	if err := unified.Decode(&value); err != nil {
		return nil, FormatError(err, filename)
	}

	return &Result[T]{Value: &value, Unified: unified}, nil
}
