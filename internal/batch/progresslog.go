// Package batch drives the conversion pipeline over the whole catalog
// with pair-granular, resumable progress.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtforge/mtforge/internal/domain"
)

// Store persists the progress log as whole-file JSON. One writer, one
// file; every mutation goes through Save so a crash loses at most the
// pair that was in flight.
type Store struct {
	path string
}

// NewStore creates a Store at path (usually {workspace}/progress.json).
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the existing log, or returns an empty one when no batch
// has run yet. A log that exists but cannot be parsed is a fatal
// condition: resuming over corrupt state would re-run finished pairs.
func (s *Store) Load() (*domain.ProgressLog, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &domain.ProgressLog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress log: %w", err)
	}

	var log domain.ProgressLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse progress log %s: %w", s.path, err)
	}
	return &log, nil
}

// Save overwrites the log on disk via temp file + rename.
func (s *Store) Save(log *domain.ProgressLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write progress log: %w", err)
	}
	return os.Rename(tmp, s.path)
}
