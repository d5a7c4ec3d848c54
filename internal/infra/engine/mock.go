package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtforge/mtforge/internal/domain"
)

// ─── Mock Backend (for testing without the Python toolchain) ────────────────

// Mock implements every collaborator interface with canned behavior.
// Tests flip the Fail* switches to exercise failure paths.
type Mock struct {
	FailExport   bool
	FailQuantize bool
	FailOptimize bool
	FailLoad     bool

	// Translation returned by mock translators. Defaults per call when
	// empty: "MOCK(<input>)".
	Translation string

	ExportedDirs  []string // destDirs seen by Export, in order
	QuantizeCalls []string // file paths seen by Quantize
	OptimizeCalls []string
}

func NewMock() *Mock { return &Mock{} }

// Export writes a plausible unpruned export: the required graphs and
// configs plus the extra files a real export leaves behind.
func (m *Mock) Export(ctx context.Context, snapshotDir, destDir string) error {
	if m.FailExport {
		return fmt.Errorf("mock export failure")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	files := []string{
		"encoder_model.onnx",
		"decoder_model.onnx",
		"decoder_with_past_model.onnx",
		"vocab.json",
		"tokenizer_config.json",
		"generation_config.json",
		"special_tokens_map.json",
		// Extras the prune stage must remove.
		"config.json",
		"source.spm",
		"target.spm",
		"ort_config.json",
	}
	for _, name := range files {
		content := []byte("MOCK-EXPORT:" + name)
		if err := os.WriteFile(filepath.Join(destDir, name), content, 0o644); err != nil {
			return err
		}
	}
	m.ExportedDirs = append(m.ExportedDirs, destDir)
	return nil
}

// Quantize rewrites the file with shorter content, mimicking the size
// drop of INT8 weights.
func (m *Mock) Quantize(ctx context.Context, modelPath string) error {
	m.QuantizeCalls = append(m.QuantizeCalls, modelPath)
	if m.FailQuantize {
		return fmt.Errorf("mock quantize failure")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return err
	}
	return os.WriteFile(modelPath, []byte("INT8:"+filepath.Base(modelPath)), 0o644)
}

func (m *Mock) Optimize(ctx context.Context, modelPath string) error {
	m.OptimizeCalls = append(m.OptimizeCalls, modelPath)
	if m.FailOptimize {
		return fmt.Errorf("mock optimize failure")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return err
	}
	return os.WriteFile(modelPath, []byte("OPT:"+filepath.Base(modelPath)), 0o644)
}

func (m *Mock) PassCount() int { return len(optimizationPasses) }

func (m *Mock) Load(ctx context.Context, artifactDir string) (domain.Translator, error) {
	if m.FailLoad {
		return nil, fmt.Errorf("mock load failure")
	}
	for _, name := range []string{"encoder_model.onnx", "decoder_model.onnx", "vocab.json"} {
		if _, err := os.Stat(filepath.Join(artifactDir, name)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrArtifactIncomplete)
		}
	}
	return &mockTranslator{fixed: m.Translation}, nil
}

type mockTranslator struct {
	fixed  string
	closed bool
}

func (t *mockTranslator) Translate(ctx context.Context, text string) (string, error) {
	if t.closed {
		return "", fmt.Errorf("translator is closed")
	}
	if t.fixed != "" {
		return t.fixed, nil
	}
	return "MOCK(" + text + ")", nil
}

func (t *mockTranslator) Close() error {
	t.closed = true
	return nil
}
