// Package pipeline converts one language pair into a finished artifact
// set: fetch → export → quantize → prune → finalize. Fetch and export
// gate the pair; quantize is best-effort; prune and finalize always run
// for a surviving pair.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mtforge/mtforge/internal/cleanup"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/metrics"
	"github.com/mtforge/mtforge/internal/infra/sqlite"
	"github.com/mtforge/mtforge/internal/workspace"
)

// Graph files worth quantizing. decoder_with_past shares weights with
// the decoder, so quantizing it buys little and doubles the time.
var quantizeTargets = []string{
	"encoder_model.onnx",
	"decoder_model.onnx",
}

// Pipeline runs the five conversion stages for single pairs.
type Pipeline struct {
	fetcher   domain.ModelFetcher
	exporter  domain.GraphExporter
	quantizer domain.WeightQuantizer
	db        *sqlite.DB

	modelsDir string
	tempDir   string
	quantize  bool

	out      io.Writer
	progress func(status string, pct float64)
}

// New creates a Pipeline over the workspace's services and layout.
func New(ws *workspace.Workspace) *Pipeline {
	return NewWithBackends(ws.Fetcher, ws.Exporter, ws.Quantizer, ws.DB,
		ws.ModelsDir(), ws.TempDir(), ws.Config.Convert.Quantize)
}

// NewWithBackends creates a Pipeline with explicit collaborators.
func NewWithBackends(fetcher domain.ModelFetcher, exporter domain.GraphExporter,
	quantizer domain.WeightQuantizer, db *sqlite.DB,
	modelsDir, tempDir string, quantize bool) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		exporter:  exporter,
		quantizer: quantizer,
		db:        db,
		modelsDir: modelsDir,
		tempDir:   tempDir,
		quantize:  quantize,
		out:       os.Stdout,
	}
}

// SetOutput redirects progress lines (used by tests).
func (p *Pipeline) SetOutput(w io.Writer) { p.out = w }

// SetProgress installs a download progress callback, forwarded to the
// fetcher for interactive runs.
func (p *Pipeline) SetProgress(fn func(status string, pct float64)) { p.progress = fn }

// Result reports one pipeline run. Err is nil iff the pair completed;
// Reason then holds the stable failure string for the progress log.
type Result struct {
	Pair      domain.LanguagePair
	ModelName string
	SizeMB    float64
	Quantize  domain.StageOutcome
	Reason    string
	Err       error
}

// Convert runs the full stage sequence for one pair. Only this pair's
// artifact directory and the shared temp dir are touched; the temp dir
// never survives the call.
func (p *Pipeline) Convert(ctx context.Context, pair domain.LanguagePair, candidates []string) Result {
	result := Result{Pair: pair}
	artifactDir := filepath.Join(p.modelsDir, pair.Key())

	// [1/4] Fetch — first candidate to load wins.
	fmt.Fprintf(p.out, "  [1/4] Fetching model...\n")
	modelName, err := p.fetchFirst(ctx, candidates)
	if err != nil {
		p.cleanupTemp()
		result.Reason = domain.ReasonFetchFailed
		result.Err = fmt.Errorf("%s: %w", pair, domain.ErrFetchFailed)
		return result
	}
	result.ModelName = modelName

	// [2/4] Export to ONNX.
	fmt.Fprintf(p.out, "  [2/4] Converting to ONNX...\n")
	if err := p.exporter.Export(ctx, p.tempDir, artifactDir); err != nil {
		fmt.Fprintf(p.out, "    export failed: %v\n", err)
		p.cleanupTemp()
		os.RemoveAll(artifactDir)
		result.Reason = domain.ReasonExportFailed
		result.Err = fmt.Errorf("%s: %w", pair, domain.ErrExportFailed)
		return result
	}
	p.cleanupTemp() // checkpoint no longer needed; reclaim disk early

	// [3/4] Quantize — the only stage whose failure does not abort.
	fmt.Fprintf(p.out, "  [3/4] Applying INT8 quantization...\n")
	result.Quantize = p.quantizeArtifacts(ctx, artifactDir)
	if result.Quantize == domain.StageSkipped {
		metrics.QuantizeSkipped.Inc()
		fmt.Fprintf(p.out, "    quantization skipped — keeping unquantized export\n")
	}

	// [4/4] Prune + finalize.
	fmt.Fprintf(p.out, "  [4/4] Pruning and writing metadata...\n")
	if _, err := cleanup.PruneDir(artifactDir); err != nil {
		// Prune failure leaves extra files, not a broken model. Report
		// it but let finalize run; the cleanup command can retry.
		fmt.Fprintf(p.out, "    prune warning: %v\n", err)
	}

	sizeMB, err := onnxSizeMB(artifactDir)
	if err != nil {
		sizeMB = 0
	}
	result.SizeMB = sizeMB

	if err := p.finalize(pair, modelName, sizeMB, result.Quantize == domain.StageSucceeded); err != nil {
		os.RemoveAll(artifactDir)
		result.Reason = domain.ReasonExportFailed
		result.Err = fmt.Errorf("finalize %s: %w", pair, err)
		return result
	}

	return result
}

// fetchFirst tries each candidate in order and returns the first that
// fetches completely. The temp snapshot is reset between attempts so a
// half-fetched candidate can never contaminate the next.
func (p *Pipeline) fetchFirst(ctx context.Context, candidates []string) (string, error) {
	var lastErr error
	for idx, model := range candidates {
		fmt.Fprintf(p.out, "    trying [%d/%d]: %s\n", idx+1, len(candidates), model)
		p.cleanupTemp()

		err := p.fetcher.Fetch(ctx, model, p.tempDir, p.progress)
		if err == nil {
			fmt.Fprintf(p.out, "    fetched: %s\n", model)
			return model, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		fmt.Fprintf(p.out, "    failed: %v\n", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = domain.ErrFetchFailed
	}
	return "", lastErr
}

// quantizeArtifacts quantizes the target graphs in place. Any failure
// flips the whole stage to skipped; files already quantized stay that
// way, which is harmless since each file is valid either way.
func (p *Pipeline) quantizeArtifacts(ctx context.Context, artifactDir string) domain.StageOutcome {
	if !p.quantize {
		return domain.StageNotApplicable
	}

	outcome := domain.StageSucceeded
	for _, name := range quantizeTargets {
		path := filepath.Join(artifactDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := p.quantizer.Quantize(ctx, path); err != nil {
			fmt.Fprintf(p.out, "    could not quantize %s: %v\n", name, err)
			outcome = domain.StageSkipped
		}
	}
	return outcome
}

// finalize writes metadata.json and the index row. This is the one
// place that declares a pair done.
func (p *Pipeline) finalize(pair domain.LanguagePair, modelName string, sizeMB float64, quantized bool) error {
	now := time.Now()

	meta := domain.Metadata{
		SourceLang:  pair.Source,
		TargetLang:  pair.Target,
		ModelName:   modelName,
		ConvertedAt: now.Format(time.RFC3339),
		SizeMB:      sizeMB,
	}
	if err := WriteMetadata(filepath.Join(p.modelsDir, pair.Key()), meta); err != nil {
		return err
	}

	return p.db.UpsertArtifact(domain.ArtifactInfo{
		Pair:        pair.Key(),
		ModelName:   modelName,
		SizeBytes:   int64(sizeMB * 1024 * 1024),
		Quantized:   quantized,
		ConvertedAt: now,
	})
}

func (p *Pipeline) cleanupTemp() {
	os.RemoveAll(p.tempDir)
}

// onnxSizeMB sums the .onnx graph sizes in dir, in MB.
func onnxSizeMB(dir string) (float64, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.onnx"))
	if err != nil {
		return 0, err
	}
	var total int64
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			total += info.Size()
		}
	}
	return float64(total) / (1024 * 1024), nil
}
