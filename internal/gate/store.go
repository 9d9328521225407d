// SPDX-License-Identifier: MPL-2.0

package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dudley/internal/module"
)

// DefaultStateDir is where deployed systems persist hook version records.
const DefaultStateDir = "/var/lib/dudley/hook-versions"

type (
	// Record is one persisted hook version, a single small JSON file per
	// hook under the state directory.
	Record struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	// Store is the file-backed record store. Writes are atomic (temp file
	// plus rename) so a crash mid-commit never leaves a torn record.
	Store struct {
		dir string
	}
)

// NewStore creates a Store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state dir is required")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's state directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) recordPath(hook string) string {
	// Hook names are validated identifiers, safe as filenames.
	return filepath.Join(s.dir, hook+".json")
}

// Get returns the recorded version for a hook and whether one exists.
func (s *Store) Get(hook string) (string, bool, error) {
	if !module.ValidName(hook) {
		return "", false, fmt.Errorf("invalid hook name %q", hook)
	}
	data, err := os.ReadFile(s.recordPath(hook))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record is treated as absent: the hook re-runs, which
		// is the safe direction.
		return "", false, nil
	}
	return rec.Version, true, nil
}

// Commit atomically records a hook's version, creating the state dir on
// first use.
func (s *Store) Commit(hook, version string) error {
	if !module.ValidName(hook) {
		return fmt.Errorf("invalid hook name %q", hook)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.Marshal(Record{Name: hook, Version: version})
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, hook+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close record: %w", err)
	}

	if err := os.Rename(tmpName, s.recordPath(hook)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename record into place: %w", err)
	}
	return nil
}
