// SPDX-License-Identifier: MPL-2.0

// Package manifest builds and validates the build manifest: the single
// JSON document recording build metadata and every hook's content version
// and dependency list. The manifest is constructed incrementally during
// the build, validated against an embedded CUE schema, and written once.
package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"dudley/internal/hash"
	"dudley/internal/module"
)

const (
	// SchemaVersion is the manifest schema this package produces.
	SchemaVersion = "1.0.0"

	// DefaultPath is where the manifest lives in the image filesystem.
	DefaultPath = "/etc/dudley/build-manifest.json"

	// MaxRecommendedSize is the soft serialized-size limit. Exceeding it
	// warns but never fails.
	MaxRecommendedSize = 50 * 1024
)

//go:embed manifest_schema.cue
var manifestSchema string

var semverPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// ErrSchemaViolation is the sentinel wrapped by SchemaViolationError.
var ErrSchemaViolation = errors.New("manifest schema violation")

type (
	// BuildInfo records where and from what the image was built.
	BuildInfo struct {
		// Date is the build timestamp, ISO-8601 UTC.
		Date string `json:"date"`
		// Image is the full image reference being built.
		Image string `json:"image"`
		// Base is the base image reference.
		Base string `json:"base"`
		// Commit is the source revision (short SHA).
		Commit string `json:"commit"`
	}

	// Hook is one first-boot hook's manifest entry.
	Hook struct {
		// Version is the 8-hex-char content hash baked into the hook.
		Version string `json:"version"`
		// Dependencies lists the files whose contents feed the hash.
		Dependencies []string `json:"dependencies"`
		// Metadata is optional free-form context carried from module.cue.
		Metadata map[string]string `json:"metadata,omitempty"`
	}

	// Document is the manifest. Values of this type are treated as
	// immutable: AddHook returns an updated copy.
	Document struct {
		Version string          `json:"version"`
		Build   BuildInfo       `json:"build"`
		Hooks   map[string]Hook `json:"hooks"`
	}

	// SchemaViolationError aggregates every violation found during
	// validation. Nothing is ever written when this is returned.
	SchemaViolationError struct {
		Violations []string
	}
)

// Error implements the error interface.
func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("manifest schema violation: %d problem(s), first: %s",
		len(e.Violations), e.Violations[0])
}

// Unwrap returns ErrSchemaViolation so callers can use errors.Is.
func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// New creates a Document with the current UTC timestamp and an empty hook
// map.
func New(image, base, commit string) Document {
	return Document{
		Version: SchemaVersion,
		Build: BuildInfo{
			Date:   time.Now().UTC().Format(time.RFC3339),
			Image:  image,
			Base:   base,
			Commit: commit,
		},
		Hooks: map[string]Hook{},
	}
}

// AddHook returns a copy of the document with the hook registered.
// Re-registering an existing name overwrites the prior entry
// (last-write-wins); the original document is never mutated.
func AddHook(doc Document, name, version string, dependencies []string, metadata map[string]string) (Document, error) {
	if !module.ValidName(name) {
		return doc, fmt.Errorf("invalid hook name %q", name)
	}
	if !hash.ValidFormat(version) {
		return doc, &hash.InvalidFormatError{Hash: version}
	}
	if len(dependencies) == 0 {
		return doc, fmt.Errorf("hook %s has an empty dependency list", name)
	}

	updated := doc
	updated.Hooks = maps.Clone(doc.Hooks)
	if updated.Hooks == nil {
		updated.Hooks = map[string]Hook{}
	}

	deps := make([]string, len(dependencies))
	copy(deps, dependencies)

	updated.Hooks[name] = Hook{
		Version:      version,
		Dependencies: deps,
		Metadata:     maps.Clone(metadata),
	}
	return updated, nil
}

// Validate checks the document against the full schema: Go-side structural
// checks for precise messages, then the embedded CUE schema as the
// authoritative shape. Returns nil when the document is valid.
func Validate(doc Document) error {
	var violations []string

	if !semverPattern.MatchString(doc.Version) {
		violations = append(violations, fmt.Sprintf("version %q is not semver-shaped", doc.Version))
	}
	if doc.Build.Date == "" {
		violations = append(violations, "build.date is empty")
	}
	if doc.Build.Image == "" {
		violations = append(violations, "build.image is empty")
	}
	if doc.Build.Base == "" {
		violations = append(violations, "build.base is empty")
	}
	if doc.Build.Commit == "" {
		violations = append(violations, "build.commit is empty")
	}
	if len(doc.Hooks) == 0 {
		violations = append(violations, "hooks map is empty")
	}
	for name, h := range doc.Hooks {
		if !module.ValidName(name) {
			violations = append(violations, fmt.Sprintf("hook name %q is invalid", name))
		}
		if !hash.ValidFormat(h.Version) {
			violations = append(violations, fmt.Sprintf("hook %s version %q is not %d lowercase hex chars", name, h.Version, hash.Length))
		}
		if len(h.Dependencies) == 0 {
			violations = append(violations, fmt.Sprintf("hook %s has an empty dependency list", name))
		}
	}

	if len(violations) == 0 {
		if err := validateAgainstSchema(doc); err != nil {
			violations = append(violations, err.Error())
		}
	}

	if len(violations) > 0 {
		return &SchemaViolationError{Violations: violations}
	}
	return nil
}

// validateAgainstSchema unifies the document with the embedded #Manifest
// definition.
func validateAgainstSchema(doc Document) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(manifestSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile manifest schema: %w", schemaValue.Err())
	}
	schema := schemaValue.LookupPath(cue.ParsePath("#Manifest"))
	if schema.Err() != nil {
		return fmt.Errorf("internal error: #Manifest definition not found: %w", schema.Err())
	}

	unified := schema.Unify(ctx.Encode(doc))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// Encode serializes the document as indented JSON.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a manifest document from JSON bytes.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return doc, nil
}
