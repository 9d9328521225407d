// SPDX-License-Identifier: MPL-2.0

// Package hash computes content-based version hashes for first-boot hooks.
// A hash is a pure function of file byte contents: paths only select the
// inputs, they never contribute to the digest.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

const (
	// Length is the number of hex characters in a content hash.
	// Truncating SHA-256 to 32 bits is acceptable for the handful of
	// hooks this system versions.
	Length = 8

	// PlaceholderToken is the literal token in hook scripts that the
	// build replaces with the computed hash.
	PlaceholderToken = "__DUDLEY_VERSION__"
)

var (
	// ErrDependencyNotFound is the sentinel wrapped by DependencyNotFoundError.
	ErrDependencyNotFound = errors.New("hash dependency not found")

	// ErrInvalidFormat is the sentinel wrapped by InvalidFormatError.
	ErrInvalidFormat = errors.New("invalid hash format")
)

type (
	// DependencyNotFoundError is returned when a declared hash input file
	// is missing. This is a build-blocking misconfiguration, never a
	// condition to tolerate.
	DependencyNotFoundError struct {
		Path string
	}

	// InvalidFormatError is returned when a string does not match the
	// fixed-length lowercase hex hash format.
	InvalidFormatError struct {
		Hash string
	}
)

// Error implements the error interface.
func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("hash dependency not found: %s", e.Path)
}

// Unwrap returns ErrDependencyNotFound so callers can use errors.Is.
func (e *DependencyNotFoundError) Unwrap() error { return ErrDependencyNotFound }

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid hash format: %q (want %d lowercase hex characters)", e.Hash, Length)
}

// Unwrap returns ErrInvalidFormat so callers can use errors.Is.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// Compute returns the content hash for the given input files.
//
// The input list is sorted lexicographically before hashing so the result
// does not depend on caller-supplied order. File contents are concatenated
// in sorted-path order and digested with SHA-256; the first Length hex
// characters form the hash.
//
// Every path must exist before any hashing starts: a missing input returns
// a DependencyNotFoundError naming the path and no partial digest is ever
// produced.
func Compute(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", errors.New("no input files to hash")
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	// Verify all inputs up front so a missing file fails before any
	// hashing happens.
	for _, p := range sorted {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return "", &DependencyNotFoundError{Path: p}
		}
	}

	h := sha256.New()
	for _, p := range sorted {
		f, err := os.Open(p)
		if err != nil {
			return "", &DependencyNotFoundError{Path: p}
		}
		_, err = io.Copy(h, f)
		closeErr := f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", p, err)
		}
		if closeErr != nil {
			return "", fmt.Errorf("failed to close %s: %w", p, closeErr)
		}
	}

	return hex.EncodeToString(h.Sum(nil))[:Length], nil
}

// ValidFormat reports whether s is exactly Length characters, all in [0-9a-f].
func ValidFormat(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
