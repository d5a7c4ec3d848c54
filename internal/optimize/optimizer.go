// Package optimize runs graph optimization passes over already
// converted artifacts and minifies their JSON sidecars. It is a
// separate, re-runnable sweep: the batch pipeline never optimizes.
package optimize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mtforge/mtforge/internal/cleanup"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
	"github.com/mtforge/mtforge/internal/pipeline"
	"github.com/mtforge/mtforge/internal/workspace"
)

// Sweeper applies the optimizer backend to every pair directory.
type Sweeper struct {
	backend   domain.GraphOptimizer
	db        *sqlite.DB
	modelsDir string
	out       io.Writer
}

func New(ws *workspace.Workspace) *Sweeper {
	return NewWithBackend(ws.Optimizer, ws.DB, ws.ModelsDir())
}

func NewWithBackend(backend domain.GraphOptimizer, db *sqlite.DB, modelsDir string) *Sweeper {
	return &Sweeper{backend: backend, db: db, modelsDir: modelsDir, out: os.Stdout}
}

func (s *Sweeper) SetOutput(w io.Writer) { s.out = w }

// PairReport records the size change of one optimized pair.
type PairReport struct {
	Pair        string
	BytesBefore int64
	BytesAfter  int64
	Err         error
}

// Report aggregates one optimization sweep.
type Report struct {
	Pairs       []PairReport
	Optimized   int
	Failed      int
	BytesBefore int64
	BytesAfter  int64
}

// BytesSaved is the total size reduction of the sweep.
func (r *Report) BytesSaved() int64 { return r.BytesBefore - r.BytesAfter }

// Run optimizes every pair directory under the models dir. Per-pair
// failures are recorded and the sweep continues; the artifact set of a
// failed pair is left as it was.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	dirs, err := cleanup.PairDirs(s.modelsDir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pair := filepath.Base(dir)

		pr := s.optimizePair(ctx, dir, pair)
		report.Pairs = append(report.Pairs, pr)
		if pr.Err != nil {
			report.Failed++
			fmt.Fprintf(s.out, "FAIL %s: %v\n", pair, pr.Err)
			continue
		}
		report.Optimized++
		report.BytesBefore += pr.BytesBefore
		report.BytesAfter += pr.BytesAfter
		fmt.Fprintf(s.out, "%s: %d -> %d bytes\n", pair, pr.BytesBefore, pr.BytesAfter)
	}
	return report, nil
}

func (s *Sweeper) optimizePair(ctx context.Context, dir, pair string) PairReport {
	pr := PairReport{Pair: pair}

	before, err := cleanup.DirSize(dir)
	if err != nil {
		pr.Err = err
		return pr
	}
	pr.BytesBefore = before

	entries, err := os.ReadDir(dir)
	if err != nil {
		pr.Err = err
		return pr
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".onnx" {
			continue
		}
		if err := s.backend.Optimize(ctx, filepath.Join(dir, entry.Name())); err != nil {
			pr.Err = fmt.Errorf("optimize %s: %w", entry.Name(), err)
			return pr
		}
	}

	if err := minifyJSON(dir); err != nil {
		pr.Err = err
		return pr
	}

	after, err := cleanup.DirSize(dir)
	if err != nil {
		pr.Err = err
		return pr
	}
	pr.BytesAfter = after

	now := time.Now().UTC()
	if err := s.updateMetadata(dir, after, now); err != nil {
		pr.Err = err
		return pr
	}
	if err := s.db.MarkOptimized(pair, after, now); err != nil {
		pr.Err = fmt.Errorf("index: %w", err)
	}
	return pr
}

// updateMetadata stamps the optimization into metadata.json.
func (s *Sweeper) updateMetadata(dir string, sizeBytes int64, at time.Time) error {
	meta, err := pipeline.ReadMetadata(dir)
	if err != nil {
		return err
	}
	meta.SizeMB = float64(sizeBytes) / (1024 * 1024)
	meta.OptimizedAt = at.Format(time.RFC3339)
	meta.OptimizationPasses = s.backend.PassCount()
	return pipeline.WriteMetadata(dir, meta)
}

// minifyJSON compacts every JSON sidecar except metadata.json, which
// stays indented for inspection.
func minifyJSON(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || name == "metadata.json" {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			// Not valid JSON; leave it alone.
			continue
		}
		if buf.Len() >= len(data) {
			continue
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
