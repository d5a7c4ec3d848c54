package domain

import "time"

// Required files of a finished artifact set. After the prune stage the
// artifact directory contains exactly these (plus any optional files the
// export happened to produce).
var RequiredArtifacts = []string{
	"encoder_model.onnx",
	"decoder_model.onnx",
	"vocab.json",
	"tokenizer_config.json",
	"generation_config.json",
	"metadata.json",
}

// Optional files that the prune and cleanup passes keep when present.
var OptionalArtifacts = []string{
	"decoder_with_past_model.onnx",
	"special_tokens_map.json",
	"README.md",
}

// ArtifactAllowList returns the union of required and optional artifact
// names as a set. Everything else in a pair directory is fair game for
// deletion.
func ArtifactAllowList() map[string]bool {
	keep := make(map[string]bool, len(RequiredArtifacts)+len(OptionalArtifacts))
	for _, name := range RequiredArtifacts {
		keep[name] = true
	}
	for _, name := range OptionalArtifacts {
		keep[name] = true
	}
	return keep
}

// Metadata is the per-pair record written to metadata.json at pipeline
// completion. The optimize pass later mutates it in place.
type Metadata struct {
	SourceLang         string  `json:"source_lang"`
	TargetLang         string  `json:"target_lang"`
	ModelName          string  `json:"model_name"`
	ConvertedAt        string  `json:"converted_at"` // ISO-8601
	SizeMB             float64 `json:"size_mb"`
	OptimizedAt        string  `json:"optimized_at,omitempty"`
	OptimizationPasses int     `json:"optimization_passes,omitempty"`
}

// ArtifactInfo is the SQLite-backed index row for a converted pair.
// It mirrors Metadata but carries exact byte sizes and timestamps for
// the list/show commands.
type ArtifactInfo struct {
	Pair        string
	ModelName   string
	SizeBytes   int64
	Quantized   bool
	ConvertedAt time.Time
	OptimizedAt time.Time
}
