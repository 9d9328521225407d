// SPDX-License-Identifier: MPL-2.0

package hash

import (
	"bytes"
	"fmt"
	"os"
)

// Stamp replaces every occurrence of PlaceholderToken in the file at path
// with the given hash, in place, preserving the file mode.
//
// It returns the number of occurrences replaced. Zero replacements is not
// an error: hooks that do not (yet) participate in versioning simply carry
// no token, and callers log a warning instead of failing the build.
//
// A hash that fails ValidFormat returns an InvalidFormatError before the
// file is touched.
func Stamp(path, hash string) (int, error) {
	if !ValidFormat(hash) {
		return 0, &InvalidFormatError{Hash: hash}
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat hook file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read hook file: %w", err)
	}

	token := []byte(PlaceholderToken)
	count := bytes.Count(data, token)
	if count == 0 {
		return 0, nil
	}

	stamped := bytes.ReplaceAll(data, token, []byte(hash))
	if err := os.WriteFile(path, stamped, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("failed to write hook file: %w", err)
	}

	return count, nil
}
