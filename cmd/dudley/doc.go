// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dudley.
//
// This package implements the Cobra command hierarchy for the dudley CLI:
// the build and validate pipelines, the manifest scripting surface used by
// Containerfile steps, the content hasher, and the runtime hook gate.
package cmd
