// Package health runs workspace diagnostics: database reachability,
// layout sanity, artifact completeness, and toolchain availability.
// Backs the `mtforge doctor` command and the status API's health view.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mtforge/mtforge/internal/cleanup"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
)

// Check defines a single diagnostic.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of one diagnostic.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs the standard workspace diagnostics.
type Checker struct {
	checks []Check
}

// ToolchainProbe reports whether the external conversion tools are
// installed. Satisfied by engine.NewToolchain's success or failure.
type ToolchainProbe func() error

// NewChecker builds a Checker over one workspace.
func NewChecker(db *sqlite.DB, modelsDir string, probe ToolchainProbe) *Checker {
	checks := []Check{
		{
			Name: "database",
			CheckFn: func(ctx context.Context) error {
				return db.Ping()
			},
		},
		{
			Name: "models_dir",
			CheckFn: func(ctx context.Context) error {
				return checkModelsDir(modelsDir)
			},
		},
		{
			Name: "artifacts",
			CheckFn: func(ctx context.Context) error {
				return checkArtifacts(modelsDir)
			},
		},
		{
			Name: "index",
			CheckFn: func(ctx context.Context) error {
				return checkIndex(db, modelsDir)
			},
		},
	}
	if probe != nil {
		checks = append(checks, Check{
			Name: "toolchain",
			CheckFn: func(ctx context.Context) error {
				return probe()
			},
		})
	}
	return &Checker{checks: checks}
}

// RunAll executes every diagnostic once.
func (c *Checker) RunAll(ctx context.Context) []Status {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Error = err.Error()
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}
	return statuses
}

// Healthy reports whether every status in the set passed.
func Healthy(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkModelsDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // no conversions yet
		}
		return fmt.Errorf("check models dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("models path %s is not a directory", dir)
	}
	return nil
}

// checkArtifacts verifies every pair directory holds the full required
// set. A pair failing here was interrupted mid-conversion or manually
// tampered with.
func checkArtifacts(modelsDir string) error {
	dirs, err := cleanup.PairDirs(modelsDir)
	if err != nil {
		return err
	}
	var broken []string
	for _, dir := range dirs {
		for _, name := range domain.RequiredArtifacts {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				broken = append(broken, filepath.Base(dir))
				break
			}
		}
	}
	if len(broken) > 0 {
		return fmt.Errorf("%w: %v", domain.ErrArtifactIncomplete, broken)
	}
	return nil
}

// checkIndex cross-checks the SQLite index against the filesystem:
// every indexed pair must have a directory.
func checkIndex(db *sqlite.DB, modelsDir string) error {
	infos, err := db.ListArtifacts()
	if err != nil {
		return err
	}
	var orphaned []string
	for _, info := range infos {
		if _, err := os.Stat(filepath.Join(modelsDir, info.Pair)); os.IsNotExist(err) {
			orphaned = append(orphaned, info.Pair)
		}
	}
	if len(orphaned) > 0 {
		return fmt.Errorf("indexed but missing on disk: %v", orphaned)
	}
	return nil
}
