// Package cleanup deletes everything from artifact directories that is
// not on the artifact allow-list. The pipeline's prune stage and the
// standalone `mtforge cleanup` command share the same primitive, so
// there is exactly one authority on what may live in a pair directory.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/metrics"
)

// Report summarizes one cleanup sweep.
type Report struct {
	Dirs         []DirReport
	TotalBytes   int64
	TotalDeleted int
}

// DirReport summarizes one artifact directory.
type DirReport struct {
	Dir            string
	BytesReclaimed int64
	FilesDeleted   int
}

// PruneDir deletes every regular file in dir that is not on the
// allow-list. Subdirectories (quantizer scratch space and the like) are
// removed entirely. Idempotent: a second call deletes nothing.
func PruneDir(dir string) (DirReport, error) {
	report := DirReport{Dir: dir}
	keep := domain.ArtifactAllowList()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("read artifact dir: %w", err)
	}

	for _, entry := range entries {
		if keep[entry.Name()] && !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			size, _ := DirSize(path)
			if err := os.RemoveAll(path); err != nil {
				return report, fmt.Errorf("remove %s: %w", entry.Name(), err)
			}
			report.BytesReclaimed += size
			report.FilesDeleted++
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			return report, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		report.BytesReclaimed += info.Size()
		report.FilesDeleted++
	}

	metrics.BytesReclaimed.Add(float64(report.BytesReclaimed))
	return report, nil
}

// Sweep prunes every pair directory under modelsDir. It depends only on
// the filesystem — never on the progress log — and is safe to run any
// number of times.
func Sweep(modelsDir string) (Report, error) {
	var report Report

	dirs, err := PairDirs(modelsDir)
	if err != nil {
		return report, err
	}

	for _, dir := range dirs {
		dr, err := PruneDir(dir)
		if err != nil {
			return report, err
		}
		report.Dirs = append(report.Dirs, dr)
		report.TotalBytes += dr.BytesReclaimed
		report.TotalDeleted += dr.FilesDeleted
	}
	return report, nil
}

// PairDirs lists the artifact directories under modelsDir, sorted.
// A pair directory is any directory whose name parses as a valid key.
func PairDirs(modelsDir string) ([]string, error) {
	entries, err := os.ReadDir(modelsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read models dir: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(entry.Name(), "-") {
			continue
		}
		if _, err := domain.ParsePair(entry.Name()); err != nil {
			continue
		}
		dirs = append(dirs, filepath.Join(modelsDir, entry.Name()))
	}
	return dirs, nil
}

// DirSize sums the file sizes under path.
func DirSize(path string) (int64, error) {
	var total int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
