package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/catalog"
	"github.com/mtforge/mtforge/internal/infra/metrics"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
	"github.com/mtforge/mtforge/internal/pipeline"
)

// Runner sweeps the catalog, one pair at a time, persisting the
// progress log after every pair. The log is the batch's only
// durability guarantee: resume granularity is the pair, never a stage.
type Runner struct {
	pipeline   *pipeline.Pipeline
	store      *Store
	db         *sqlite.DB
	pairs      []domain.LanguagePair
	candidates func(domain.LanguagePair) []string

	out io.Writer
}

// NewRunner creates a Runner over the full catalog.
func NewRunner(p *pipeline.Pipeline, store *Store, db *sqlite.DB) *Runner {
	return &Runner{
		pipeline:   p,
		store:      store,
		db:         db,
		pairs:      catalog.Pairs(),
		candidates: catalog.Candidates,
		out:        os.Stdout,
	}
}

// SetOutput redirects progress lines (used by tests).
func (r *Runner) SetOutput(w io.Writer) { r.out = w }

// SetPairs restricts the sweep to a subset of the catalog.
func (r *Runner) SetPairs(pairs []domain.LanguagePair) { r.pairs = pairs }

// Summary aggregates one sweep.
type Summary struct {
	Completed      int
	Failed         []domain.FailedPair
	Skipped        int
	TotalPairs     int
	TotalSizeBytes int64
}

// Run executes the sweep. Pipeline failures are recorded and the sweep
// continues; only log-persistence failures (and cancellation) abort.
// On cancellation the log is flushed first, so the next invocation
// resumes cleanly.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	log, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	if len(log.Completed) > 0 || len(log.Failed) > 0 {
		fmt.Fprintf(r.out, "Resuming: %d completed, %d failed in previous runs\n",
			len(log.Completed), len(log.Failed))
	}

	log.RunID = uuid.NewString()
	if log.StartedAt == "" {
		log.StartedAt = time.Now().Format(time.RFC3339)
	}
	log.TotalPairs = len(r.pairs)
	log.Skipped = nil // per-run, rebuilt below
	log.Current = ""
	if err := r.store.Save(log); err != nil {
		return nil, err
	}

	summary := &Summary{TotalPairs: len(r.pairs)}

	for i, pair := range r.pairs {
		if ctx.Err() != nil {
			return r.finish(summary, log, ctx.Err())
		}

		key := pair.Key()
		fmt.Fprintf(r.out, "\n[%d/%d] %s → %s (%s)\n", i+1, len(r.pairs),
			catalog.Name(pair.Source), catalog.Name(pair.Target), key)

		if log.IsCompleted(key) {
			fmt.Fprintf(r.out, "  skipped — already completed\n")
			log.Skipped = append(log.Skipped, key)
			summary.Skipped++
			metrics.PairsSkipped.Inc()
			continue
		}

		log.Current = key
		if err := r.store.Save(log); err != nil {
			return nil, err
		}

		result := r.pipeline.Convert(ctx, pair, r.candidates(pair))
		if ctx.Err() != nil {
			// Cancelled mid-pair: the pair is neither completed nor
			// genuinely failed. Leave it for the next run.
			log.Current = ""
			return r.finish(summary, log, ctx.Err())
		}

		if result.Err != nil {
			fmt.Fprintf(r.out, "  failed: %s\n", result.Reason)
			log.MarkFailed(key, result.Reason)
			summary.Failed = append(summary.Failed, domain.FailedPair{Pair: key, Reason: result.Reason})
			metrics.PairsFailed.WithLabelValues(result.Reason).Inc()
		} else {
			fmt.Fprintf(r.out, "  completed: %s (%.1f MB)\n", key, result.SizeMB)
			log.MarkCompleted(key)
			summary.Completed++
			metrics.PairsCompleted.Inc()
		}

		log.Current = ""
		if err := r.store.Save(log); err != nil {
			// Losing the log is the one fatal condition: without it the
			// next run cannot resume.
			return nil, fmt.Errorf("persist progress log: %w", err)
		}
		metrics.BatchProgress.Set(float64(i+1) / float64(len(r.pairs)))
	}

	return r.finish(summary, log, nil)
}

// finish flushes the log, fills in the aggregate size, and returns.
func (r *Runner) finish(summary *Summary, log *domain.ProgressLog, cause error) (*Summary, error) {
	if err := r.store.Save(log); err != nil && cause == nil {
		cause = fmt.Errorf("persist progress log: %w", err)
	}

	if total, err := r.db.TotalSizeBytes(); err == nil {
		summary.TotalSizeBytes = total
		metrics.ArtifactBytes.Set(float64(total))
	}
	return summary, cause
}
