// Package engine provides the conversion backends.
// This file implements the REAL backend that shells out to the Python
// ML toolchain: optimum-cli for ONNX export and INT8 quantization,
// onnxoptimizer for graph passes, and the companion onnxmt runtime for
// smoke inference.
//
// Architecture:
//
//	Pipeline → Toolchain.Export(snapshot, dest)
//	  → runs `optimum-cli export onnx`
//	Pipeline → Toolchain.Quantize(file)
//	  → runs `optimum-cli onnxruntime quantize` into a scratch dir,
//	    then renames the result over the original (the canonical
//	    naming contract lives HERE and nowhere else)
//	Verifier → Toolchain.Load(dir).Translate(text)
//	  → runs `onnxmt --model-dir dir --text ...`
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mtforge/mtforge/internal/domain"
)

// Graph optimization passes applied by Optimize, in order.
var optimizationPasses = []string{
	"eliminate_deadend",
	"eliminate_identity",
	"eliminate_nop_dropout",
	"eliminate_nop_monotone_argmax",
	"eliminate_nop_pad",
	"eliminate_nop_transpose",
	"eliminate_unused_initializer",
	"extract_constant_to_initializer",
	"fuse_add_bias_into_conv",
	"fuse_bn_into_conv",
	"fuse_consecutive_concats",
	"fuse_consecutive_log_softmax",
	"fuse_consecutive_reduce_unsqueeze",
	"fuse_consecutive_squeezes",
	"fuse_consecutive_transposes",
	"fuse_matmul_add_bias_into_gemm",
	"fuse_pad_into_conv",
	"fuse_transpose_into_gemm",
}

// Toolchain locates and drives the external conversion tools. It
// implements domain.GraphExporter, domain.WeightQuantizer,
// domain.GraphOptimizer, and domain.TranslationEngine.
type Toolchain struct {
	optimumPath   string
	optimizerPath string
	runtimePath   string
}

// NewToolchain locates the external tools under home/bin or PATH.
// optimum-cli is mandatory; onnxoptimizer and onnxmt are looked up
// lazily by the operations that need them.
func NewToolchain(home string) (*Toolchain, error) {
	optimum, err := findTool(home, "optimum-cli")
	if err != nil {
		return nil, fmt.Errorf(`optimum-cli not found: %w

mtforge needs the HuggingFace Optimum CLI for ONNX export and quantization.

Install it:
  pip install "optimum[onnxruntime]"

Then make sure optimum-cli is on your PATH or in %s`,
			err, filepath.Join(home, "bin"))
	}

	tc := &Toolchain{optimumPath: optimum}
	// Best-effort lookups — only needed by optimize/verify.
	tc.optimizerPath, _ = findTool(home, "onnxoptimizer")
	tc.runtimePath, _ = findTool(home, "onnxmt")
	return tc, nil
}

// findTool searches for an executable in home/bin, then PATH.
func findTool(home, name string) (string, error) {
	exe := name
	if runtime.GOOS == "windows" {
		exe = name + ".exe"
	}

	binPath := filepath.Join(home, "bin", exe)
	if _, err := os.Stat(binPath); err == nil {
		return binPath, nil
	}

	if path, err := exec.LookPath(exe); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%s: %w", name, domain.ErrToolNotFound)
}

// Export converts a fetched snapshot into ONNX graph files in destDir.
func (t *Toolchain) Export(ctx context.Context, snapshotDir, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	args := []string{
		"export", "onnx",
		"--model", snapshotDir,
		"--task", "text2text-generation",
		destDir,
	}
	if err := t.run(ctx, t.optimumPath, args...); err != nil {
		return fmt.Errorf("optimum export: %w", err)
	}
	return nil
}

// Quantize applies dynamic INT8 quantization to one graph file,
// replacing it in place. The quantizer writes suffixed output names
// into a scratch dir; the rename back to the original name happens
// here, once, so no other stage ever deals with suffixes.
func (t *Toolchain) Quantize(ctx context.Context, modelPath string) error {
	dir := filepath.Dir(modelPath)
	base := filepath.Base(modelPath)

	scratch, err := os.MkdirTemp(dir, ".quantize-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{
		"onnxruntime", "quantize",
		"--avx512_vnni",
		"--onnx_model", dir,
		"--file_name", base,
		"--output", scratch,
	}
	if err := t.run(ctx, t.optimumPath, args...); err != nil {
		return fmt.Errorf("quantize %s: %w", base, err)
	}

	// The tool names its output freely ("<name>_quantized.onnx" and
	// friends). Whatever single graph it produced replaces the input.
	produced, err := filepath.Glob(filepath.Join(scratch, "*.onnx"))
	if err != nil || len(produced) == 0 {
		return fmt.Errorf("quantize %s: no output graph produced", base)
	}
	return os.Rename(produced[0], modelPath)
}

// Optimize applies the fixed graph-optimization pass list to one ONNX
// file, replacing it in place.
func (t *Toolchain) Optimize(ctx context.Context, modelPath string) error {
	if t.optimizerPath == "" {
		return fmt.Errorf("onnxoptimizer: %w", domain.ErrToolNotFound)
	}

	tmpPath := modelPath + ".opt"
	args := append([]string{modelPath, tmpPath}, optimizationPasses...)
	if err := t.run(ctx, t.optimizerPath, args...); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("optimize %s: %w", filepath.Base(modelPath), err)
	}
	return os.Rename(tmpPath, modelPath)
}

// PassCount reports the number of optimization passes, recorded in
// metadata after an optimize sweep.
func (t *Toolchain) PassCount() int { return len(optimizationPasses) }

// Load prepares an artifact directory for smoke inference via the
// onnxmt runtime. Loading is cheap here — the subprocess runs per
// Translate call.
func (t *Toolchain) Load(ctx context.Context, artifactDir string) (domain.Translator, error) {
	if t.runtimePath == "" {
		return nil, fmt.Errorf("onnxmt: %w", domain.ErrToolNotFound)
	}
	for _, name := range []string{"encoder_model.onnx", "decoder_model.onnx", "vocab.json"} {
		if _, err := os.Stat(filepath.Join(artifactDir, name)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrArtifactIncomplete)
		}
	}
	return &runtimeTranslator{toolchain: t, dir: artifactDir}, nil
}

// runtimeTranslator proxies Translate calls to the onnxmt subprocess.
type runtimeTranslator struct {
	toolchain *Toolchain
	dir       string
}

func (r *runtimeTranslator) Translate(ctx context.Context, text string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.toolchain.runtimePath,
		"--model-dir", r.dir, "--text", text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("onnxmt: %w\n%s", err, tail(stderr.String(), 5))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", domain.ErrEmptyTranslation
	}
	return out, nil
}

func (r *runtimeTranslator) Close() error { return nil }

// run executes a tool, capturing stderr for diagnostics.
func (t *Toolchain) run(ctx context.Context, tool string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = os.Stderr // tool chatter goes to our stderr, not stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := tail(strings.TrimSpace(stderr.String()), 10)
		if msg != "" {
			return fmt.Errorf("%s: %w\n%s", filepath.Base(tool), err, msg)
		}
		return fmt.Errorf("%s: %w", filepath.Base(tool), err)
	}
	return nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
