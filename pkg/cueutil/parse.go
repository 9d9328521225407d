// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared helpers for parsing and validating CUE
// documents against embedded schemas. Both module metadata files and the
// build manifest schema go through this path.
package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize is the maximum size accepted for a CUE input file.
// Metadata files are a few hundred bytes; anything near this limit is a
// mistake, not a configuration.
const DefaultMaxFileSize int64 = 1 * 1024 * 1024

type (
	// parseOptions holds configuration for CUE parsing.
	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures parsing behavior.
	Option func(*parseOptions)

	// ParseResult contains the result of a successful parse.
	ParseResult[T any] struct {
		// Value is the decoded Go struct.
		Value *T

		// Unified is the unified CUE value, available for callers that
		// need to extract extra metadata beyond the decoded struct.
		Unified cue.Value
	}

	// FileTooLargeError is returned when an input exceeds the size limit.
	FileTooLargeError struct {
		Path  string
		Size  int64
		Limit int64
	}
)

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file is %d bytes, limit is %d", e.Path, e.Size, e.Limit)
}

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithMaxFileSize overrides the maximum allowed input size.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) { o.maxFileSize = size }
}

// WithConcrete sets whether all values must be concrete after unification.
// Default is true. Set to false for documents with optional fields.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) { o.concrete = concrete }
}

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) { o.filename = name }
}

// CheckFileSize validates that data fits within limit.
func CheckFileSize(data []byte, limit int64, path string) error {
	if int64(len(data)) > limit {
		return &FileTooLargeError{Path: path, Size: int64(len(data)), Limit: limit}
	}
	return nil
}

// ParseAndDecode runs the three-step CUE flow:
//
//  1. compile the embedded schema and look up schemaPath (e.g. "#Module")
//  2. compile the user data and unify it with the schema
//  3. validate the unified value and decode it into T
//
// Errors carry the filename and a JSON-style path to the offending field.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)

	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}

// ParseAndDecodeString accepts the schema as a string, the usual shape for
// //go:embed string constants.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}
