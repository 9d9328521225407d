// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error reporting: structured
// actionable errors with suggestions, and a registry of known build
// issues rendered as markdown help pages.
package issue
