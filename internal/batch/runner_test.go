package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/engine"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
	"github.com/mtforge/mtforge/internal/pipeline"
)

// countingFetcher succeeds for models in ok and counts every attempt
// per pair-identifying model name.
type countingFetcher struct {
	ok    map[string]bool
	calls map[string]int
}

func newCountingFetcher(ok ...string) *countingFetcher {
	f := &countingFetcher{ok: make(map[string]bool), calls: make(map[string]int)}
	for _, m := range ok {
		f.ok[m] = true
	}
	return f
}

func (f *countingFetcher) Fetch(ctx context.Context, model, dest string, progress func(string, float64)) error {
	f.calls[model]++
	if !f.ok[model] {
		return errors.New("404 model not found")
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "pytorch_model.bin"), []byte("WEIGHTS"), 0o644)
}

func newTestRunner(t *testing.T, fetcher domain.ModelFetcher, pairs []domain.LanguagePair) (*Runner, *Store, *sqlite.DB) {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	p := pipeline.NewWithBackends(fetcher, engine.NewMock(), engine.NewMock(), db,
		filepath.Join(dir, "models"), filepath.Join(dir, "tmp"), true)
	p.SetOutput(io.Discard)

	store := NewStore(filepath.Join(dir, "progress.json"))
	r := NewRunner(p, store, db)
	r.SetOutput(io.Discard)
	r.SetPairs(pairs)
	return r, store, db
}

// candidates used by the runner come from the catalog; the test models
// below use the opus-mt pattern so the stub can match the first
// candidate directly.
func opusMT(pair string) string { return "Helsinki-NLP/opus-mt-" + pair }

func TestRun_SingleSuccessWithQuantizeFailure(t *testing.T) {
	// Catalog {(en,tr)}: fetch succeeds with candidate #1, quantize
	// fails, the pair still completes.
	pairs := []domain.LanguagePair{{Source: "en", Target: "tr"}}
	fetcher := newCountingFetcher("Helsinki-NLP/opus-mt-tc-big-en-tr")
	r, store, _ := newTestRunner(t, fetcher, pairs)

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Completed != 1 || len(summary.Failed) != 0 {
		t.Errorf("summary = %+v, want 1 completed, 0 failed", summary)
	}

	log, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(log.Completed) != 1 || log.Completed[0] != "en-tr" {
		t.Errorf("Completed = %v, want [en-tr]", log.Completed)
	}
	if len(log.Failed) != 0 {
		t.Errorf("Failed = %v, want empty", log.Failed)
	}
	if log.RunID == "" {
		t.Error("RunID missing")
	}
	if log.Current != "" {
		t.Errorf("Current = %q, want empty after sweep", log.Current)
	}
}

func TestRun_MixedFetchOutcomes(t *testing.T) {
	// Catalog {(tr,en), (de,en)}: no candidate loads for tr-en, de-en
	// succeeds.
	pairs := []domain.LanguagePair{
		{Source: "tr", Target: "en"},
		{Source: "de", Target: "en"},
	}
	fetcher := newCountingFetcher(opusMT("de-en"))
	r, store, _ := newTestRunner(t, fetcher, pairs)

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Completed != 1 {
		t.Errorf("Completed = %d, want 1", summary.Completed)
	}
	if len(summary.Failed) != 1 || summary.Failed[0].Pair != "tr-en" ||
		summary.Failed[0].Reason != domain.ReasonFetchFailed {
		t.Errorf("Failed = %v, want [{tr-en fetch_failed}]", summary.Failed)
	}

	log, _ := store.Load()
	if len(log.Completed) != 1 || log.Completed[0] != "de-en" {
		t.Errorf("log.Completed = %v, want [de-en]", log.Completed)
	}
	if len(log.Failed) != 1 || log.Failed[0].Pair != "tr-en" {
		t.Errorf("log.Failed = %v", log.Failed)
	}
}

func TestRun_ResumeSkipsCompleted(t *testing.T) {
	pairs := []domain.LanguagePair{{Source: "en", Target: "tr"}}
	fetcher := newCountingFetcher(opusMT("en-tr"), "Helsinki-NLP/opus-mt-tc-big-en-tr")

	r, store, _ := newTestRunner(t, fetcher, pairs)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	attemptsAfterFirst := fetcher.calls["Helsinki-NLP/opus-mt-tc-big-en-tr"]

	// Second sweep over the same store: the pipeline must NOT be
	// re-invoked for the completed pair.
	r2, _, _ := newTestRunner(t, fetcher, pairs)
	// Point the second runner at the first runner's log.
	r2.store = store

	summary, err := r2.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Completed != 0 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
	if got := fetcher.calls["Helsinki-NLP/opus-mt-tc-big-en-tr"]; got != attemptsAfterFirst {
		t.Errorf("fetch attempts grew from %d to %d on resume", attemptsAfterFirst, got)
	}

	log, _ := store.Load()
	if len(log.Skipped) != 1 || log.Skipped[0] != "en-tr" {
		t.Errorf("log.Skipped = %v, want [en-tr]", log.Skipped)
	}
}

func TestRun_SkippedResetsPerRun(t *testing.T) {
	pairs := []domain.LanguagePair{{Source: "en", Target: "de"}}
	fetcher := newCountingFetcher(opusMT("en-de"), "Helsinki-NLP/opus-mt-tc-big-en-de")
	r, store, _ := newTestRunner(t, fetcher, pairs)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Two resumed sweeps; skipped must not accumulate across them.
	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	log, _ := store.Load()
	if len(log.Skipped) != 1 {
		t.Errorf("len(Skipped) = %d, want 1 (per-run, not cumulative)", len(log.Skipped))
	}
}

func TestRun_CancelledBeforeSweepFlushesLog(t *testing.T) {
	pairs := []domain.LanguagePair{{Source: "en", Target: "tr"}}
	fetcher := newCountingFetcher()
	r, store, _ := newTestRunner(t, fetcher, pairs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}

	// The log must exist and be loadable for the next invocation.
	log, err := store.Load()
	if err != nil {
		t.Fatalf("log not flushed on cancellation: %v", err)
	}
	if len(log.Failed) != 0 {
		t.Errorf("cancellation must not record failures, got %v", log.Failed)
	}
}

func TestRun_FailureDoesNotAbortSweep(t *testing.T) {
	pairs := []domain.LanguagePair{
		{Source: "tr", Target: "en"}, // will fail
		{Source: "de", Target: "en"}, // must still run
		{Source: "fr", Target: "en"}, // must still run
	}
	fetcher := newCountingFetcher(opusMT("de-en"), opusMT("fr-en"),
		"Helsinki-NLP/opus-mt-tc-big-de-en", "Helsinki-NLP/opus-mt-tc-big-fr-en")
	r, _, _ := newTestRunner(t, fetcher, pairs)

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Completed != 2 || len(summary.Failed) != 1 {
		t.Errorf("summary = %+v, want 2 completed / 1 failed", summary)
	}
}
