// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Write validates the document and writes it atomically to path, mode
// 0644 (the runtime reader is unprivileged). An invalid document returns
// SchemaViolationError before anything touches the filesystem, so a
// partial or invalid manifest never reaches the image.
//
// Exceeding MaxRecommendedSize logs a warning but does not fail.
func Write(doc Document, path string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	if err := Validate(doc); err != nil {
		return err
	}

	data, err := Encode(doc)
	if err != nil {
		return err
	}

	if len(data) > MaxRecommendedSize {
		logger.Warn("manifest exceeds recommended size",
			"size", len(data), "limit", MaxRecommendedSize)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close manifest: %w", err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set manifest mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename manifest into place: %w", err)
	}
	return nil
}

// Read loads and parses a manifest file.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Decode(data)
}
