// SPDX-License-Identifier: MPL-2.0

package module

import "fmt"

// Category identifies the group a build module belongs to. Categories
// execute in a fixed total order; the category of a module is the name of
// its containing directory under the build root.
type Category string

const (
	// CategorySharedUtilities holds helpers installed before everything else.
	CategorySharedUtilities Category = "shared-utilities"
	// CategoryDesktop holds desktop environment customization modules.
	CategoryDesktop Category = "desktop"
	// CategoryDeveloperTools holds developer tooling modules.
	CategoryDeveloperTools Category = "developer-tools"
	// CategoryUserHooks holds modules whose payload is deferred to first
	// user boot and versioned by content hash.
	CategoryUserHooks Category = "user-hooks"
)

// Categories returns all categories in execution order.
func Categories() []Category {
	return []Category{
		CategorySharedUtilities,
		CategoryDesktop,
		CategoryDeveloperTools,
		CategoryUserHooks,
	}
}

// ParseCategory converts a directory name into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown module category %q", s)
}

// String returns the directory name of the category.
func (c Category) String() string { return string(c) }
