package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/engine"
	"github.com/mtforge/mtforge/internal/infra/hub"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
)

// Workspace wires the toolkit's services over one data directory.
type Workspace struct {
	Config  Config
	DB      *sqlite.DB
	Fetcher domain.ModelFetcher

	Exporter  domain.GraphExporter
	Quantizer domain.WeightQuantizer
	Optimizer domain.GraphOptimizer
	Engine    domain.TranslationEngine

	// MockBackend is set when the Python toolchain was not found and the
	// conversion backends are mocks. Commands that write real artifacts
	// must call RequireToolchain before proceeding.
	MockBackend bool
}

// New creates a Workspace from the on-disk config.
func New() (*Workspace, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Workspace with the given configuration.
// When the Python toolchain is not installed, conversion backends fall
// back to the mock so catalog/list/show/cleanup keep working; commands
// that produce artifacts refuse to run against the mock unless the
// caller opts in.
func NewWithConfig(cfg Config) (*Workspace, error) {
	if cfg.Workspace.Dir == "" {
		cfg.Workspace.Dir = Home()
	}

	db, err := sqlite.Open(cfg.Workspace.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ws := &Workspace{
		Config:  cfg,
		DB:      db,
		Fetcher: hub.NewFetcher(cfg.Hub.Endpoint, cfg.Hub.Token),
	}

	tc, err := engine.NewToolchain(cfg.Workspace.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Conversion backends are mocked; run and verify need --mock.\n")
		mock := engine.NewMock()
		ws.Exporter, ws.Quantizer, ws.Optimizer, ws.Engine = mock, mock, mock, mock
		ws.MockBackend = true
	} else {
		ws.Exporter, ws.Quantizer, ws.Optimizer, ws.Engine = tc, tc, tc, tc
	}

	return ws, nil
}

// RequireToolchain returns an error when the conversion backends are
// mocks, so mock output never lands in the progress log or the index
// by accident.
func (w *Workspace) RequireToolchain() error {
	if !w.MockBackend {
		return nil
	}
	return fmt.Errorf("%w: pass --mock to run against the mock backend anyway", domain.ErrToolNotFound)
}

// Close shuts down workspace resources.
func (w *Workspace) Close() {
	if w.DB != nil {
		_ = w.DB.Close()
	}
}

// ─── Layout ─────────────────────────────────────────────────────────────────

// ModelsDir is where finished artifact directories live.
func (w *Workspace) ModelsDir() string {
	return filepath.Join(w.Config.Workspace.Dir, "models")
}

// PairDir is the artifact directory for one language pair.
func (w *Workspace) PairDir(pair domain.LanguagePair) string {
	return filepath.Join(w.ModelsDir(), pair.Key())
}

// TempDir holds in-flight snapshot downloads; removed after every pair.
func (w *Workspace) TempDir() string {
	return filepath.Join(w.Config.Workspace.Dir, "tmp")
}

// ProgressPath is the resumable batch log.
func (w *Workspace) ProgressPath() string {
	return filepath.Join(w.Config.Workspace.Dir, "progress.json")
}

// ResultsPath is the verifier's summary file.
func (w *Workspace) ResultsPath() string {
	return filepath.Join(w.Config.Workspace.Dir, "test_results.json")
}
