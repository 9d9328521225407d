// SPDX-License-Identifier: MPL-2.0

// Package discovery finds build modules under the build root. The layout
// contract: <root>/<category>/<module-dir>/module.cue, with categories
// limited to the fixed set in internal/module. Discovery loads and
// validates metadata without executing anything.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"dudley/internal/module"
)

type (
	// NameCollisionError is returned when two module directories in the
	// same category declare the same module name.
	NameCollisionError struct {
		Name      string
		Category  module.Category
		FirstDir  string
		SecondDir string
	}

	// Discovery scans a build root for modules.
	Discovery struct {
		root string
	}

	// Result holds everything found under the build root, grouped by
	// category in execution order.
	Result struct {
		// Modules maps each category to its modules, sorted by name.
		Modules map[module.Category][]*module.Module
	}
)

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	return fmt.Sprintf(
		"module name collision in category %s: %q defined in both:\n  - %s\n  - %s",
		e.Category, e.Name, e.FirstDir, e.SecondDir)
}

// New creates a Discovery rooted at the given build files directory.
func New(root string) *Discovery {
	return &Discovery{root: root}
}

// Root returns the build root this Discovery scans.
func (d *Discovery) Root() string { return d.root }

// DiscoverAll loads every module under the root. Missing category
// directories are fine (a build without desktop modules is still a
// build); an unreadable root is not.
func (d *Discovery) DiscoverAll() (*Result, error) {
	absRoot, err := filepath.Abs(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve build root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("build root not accessible: %w", err)
	}

	result := &Result{Modules: make(map[module.Category][]*module.Module)}

	for _, category := range module.Categories() {
		mods, err := d.discoverCategory(absRoot, category)
		if err != nil {
			return nil, err
		}
		if len(mods) > 0 {
			result.Modules[category] = mods
		}
	}

	return result, nil
}

// discoverCategory loads all modules in one category directory, sorted by
// module name, and rejects duplicate names.
func (d *Discovery) discoverCategory(absRoot string, category module.Category) ([]*module.Module, error) {
	categoryDir := filepath.Join(absRoot, category.String())
	entries, err := os.ReadDir(categoryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read category %s: %w", category, err)
	}

	var mods []*module.Module
	dirByName := make(map[string]string)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		moduleDir := filepath.Join(categoryDir, entry.Name())
		if _, err := os.Stat(filepath.Join(moduleDir, module.MetadataFileName)); err != nil {
			// Directories without metadata are not modules.
			continue
		}

		m, err := module.Load(moduleDir, category)
		if err != nil {
			return nil, err
		}

		if prev, exists := dirByName[m.Name]; exists {
			return nil, &NameCollisionError{
				Name:      m.Name,
				Category:  category,
				FirstDir:  prev,
				SecondDir: moduleDir,
			}
		}
		dirByName[m.Name] = moduleDir
		mods = append(mods, m)
	}

	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods, nil
}

// Hooks returns all user-hooks modules, sorted by name.
func (r *Result) Hooks() []*module.Module {
	return r.Modules[module.CategoryUserHooks]
}

// Count returns the total number of discovered modules.
func (r *Result) Count() int {
	n := 0
	for _, mods := range r.Modules {
		n += len(mods)
	}
	return n
}

// Get finds a module by category and name.
func (r *Result) Get(category module.Category, name string) *module.Module {
	for _, m := range r.Modules[category] {
		if m.Name == name {
			return m
		}
	}
	return nil
}
