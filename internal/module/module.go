// SPDX-License-Identifier: MPL-2.0

// Package module defines the build module model: an independently
// executable build step with declared dependencies, a parallel-safety
// flag, and (for hooks) the files feeding its content hash. Metadata is
// declared in a module.cue sidecar validated against an embedded schema,
// not parsed out of script comments.
package module

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"dudley/pkg/cueutil"
)

// MetadataFileName is the per-module metadata file, located next to the
// module's entrypoint.
const MetadataFileName = "module.cue"

//go:embed module_schema.cue
var moduleSchema string

// namePattern matches valid module and hook names.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

type (
	// Module is one discovered build step. It is immutable after
	// discovery; the orchestrator only reads it.
	Module struct {
		// Name is unique within the category. Defaults to the module
		// directory name.
		Name string `json:"name"`
		// Entrypoint is the executable file, relative to Dir.
		Entrypoint string `json:"entrypoint"`
		// DependsOn names modules in the same category that must finish
		// successfully first.
		DependsOn []string `json:"depends_on"`
		// ParallelSafe is the developer-asserted claim that the module
		// touches disjoint resources. Never verified.
		ParallelSafe bool `json:"parallel_safe"`
		// HashDeps lists extra content-hash inputs, relative to Dir or
		// absolute.
		HashDeps []string `json:"hash_deps"`
		// Metadata is carried into the build manifest for hooks.
		Metadata map[string]string `json:"metadata,omitempty"`

		// Category is derived from the containing directory.
		Category Category `json:"-"`
		// Dir is the absolute module directory.
		Dir string `json:"-"`
	}

	// metadataFile mirrors the module.cue schema for decoding.
	metadataFile struct {
		Name         string            `json:"name"`
		Description  string            `json:"description"`
		Entrypoint   string            `json:"entrypoint"`
		DependsOn    []string          `json:"depends_on"`
		ParallelSafe bool              `json:"parallel_safe"`
		HashDeps     []string          `json:"hash_deps"`
		Metadata     map[string]string `json:"metadata"`
	}
)

// ValidName reports whether s is a valid module or hook name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// Load reads and validates the module.cue file in dir, producing a Module
// bound to the given category. The module name defaults to the directory
// base name when the metadata omits it.
func Load(dir string, category Category) (*Module, error) {
	metaPath := filepath.Join(dir, MetadataFileName)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read module metadata: %w", err)
	}

	parsed, err := cueutil.ParseAndDecodeString[metadataFile](
		moduleSchema, data, "#Module",
		cueutil.WithFilename(metaPath),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}

	meta := parsed.Value
	name := meta.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	if !ValidName(name) {
		return nil, fmt.Errorf("%s: invalid module name %q", metaPath, name)
	}

	entrypoint := meta.Entrypoint
	if entrypoint == "" {
		entrypoint = "run.sh"
	}

	m := &Module{
		Name:         name,
		Entrypoint:   entrypoint,
		DependsOn:    meta.DependsOn,
		ParallelSafe: meta.ParallelSafe,
		HashDeps:     meta.HashDeps,
		Metadata:     meta.Metadata,
		Category:     category,
		Dir:          dir,
	}

	if _, err := os.Stat(m.ExecutablePath()); err != nil {
		return nil, fmt.Errorf("%s: entrypoint %s not found: %w", metaPath, entrypoint, err)
	}

	return m, nil
}

// ExecutablePath returns the absolute path of the module's entrypoint.
func (m *Module) ExecutablePath() string {
	return filepath.Join(m.Dir, m.Entrypoint)
}

// IsHook reports whether the module's payload is deferred to first boot.
func (m *Module) IsHook() bool {
	return m.Category == CategoryUserHooks
}

// HashInputs returns the absolute paths feeding the module's content hash:
// the entrypoint plus every declared hash dependency. The list is never
// empty because the entrypoint is always included.
func (m *Module) HashInputs() []string {
	inputs := make([]string, 0, len(m.HashDeps)+1)
	inputs = append(inputs, m.ExecutablePath())
	for _, dep := range m.HashDeps {
		if filepath.IsAbs(dep) {
			inputs = append(inputs, dep)
			continue
		}
		inputs = append(inputs, filepath.Join(m.Dir, dep))
	}
	return inputs
}
