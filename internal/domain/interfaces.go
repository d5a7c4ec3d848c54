package domain

import "context"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// The heavy ML operations are owned by external tools. These interfaces
// define the boundary; infrastructure implements them, the pipeline and
// verifier depend only on them.

// ModelFetcher downloads one upstream model snapshot into dest.
// Implemented by infra/hub.Fetcher.
type ModelFetcher interface {
	// Fetch downloads the snapshot for model (a hub repo identifier)
	// into dest, reporting progress as it streams.
	Fetch(ctx context.Context, model, dest string, progress func(status string, pct float64)) error
}

// GraphExporter converts a fetched model snapshot into the ONNX
// interchange files inside destDir.
type GraphExporter interface {
	Export(ctx context.Context, snapshotDir, destDir string) error
}

// WeightQuantizer applies INT8 post-training quantization to one graph
// file, replacing it in place. Best-effort by contract: callers treat a
// failure as non-fatal.
type WeightQuantizer interface {
	Quantize(ctx context.Context, modelPath string) error
}

// GraphOptimizer applies graph optimization passes to one ONNX file,
// replacing it in place.
type GraphOptimizer interface {
	Optimize(ctx context.Context, modelPath string) error
	// PassCount reports how many passes Optimize applies, for the
	// metadata record.
	PassCount() int
}

// TranslationEngine loads one artifact directory for smoke inference.
type TranslationEngine interface {
	Load(ctx context.Context, artifactDir string) (Translator, error)
}

// Translator runs inference over a loaded artifact set.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	Close() error
}
