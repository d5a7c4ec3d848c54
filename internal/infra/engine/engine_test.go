package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtforge/mtforge/internal/domain"
)

func TestFindTool_HomeBin(t *testing.T) {
	home := t.TempDir()
	binDir := filepath.Join(home, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	toolPath := filepath.Join(binDir, "optimum-cli")
	if err := os.WriteFile(toolPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := findTool(home, "optimum-cli")
	if err != nil {
		t.Fatalf("findTool() error: %v", err)
	}
	if got != toolPath {
		t.Errorf("findTool() = %q, want %q", got, toolPath)
	}
}

func TestFindTool_NotFound(t *testing.T) {
	_, err := findTool(t.TempDir(), "definitely-not-a-real-tool-xyz")
	if !errors.Is(err, domain.ErrToolNotFound) {
		t.Errorf("findTool() error = %v, want ErrToolNotFound", err)
	}
}

func TestMock_ExportWritesUnprunedSet(t *testing.T) {
	m := NewMock()
	dest := t.TempDir()

	if err := m.Export(context.Background(), t.TempDir(), dest); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	// Required graphs present
	for _, name := range []string{"encoder_model.onnx", "decoder_model.onnx", "vocab.json"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("exported file %q missing", name)
		}
	}
	// Extras present — the prune stage is responsible for these
	if _, err := os.Stat(filepath.Join(dest, "source.spm")); err != nil {
		t.Error("mock export should leave extra files for prune to remove")
	}
}

func TestMock_QuantizeInPlace(t *testing.T) {
	m := NewMock()
	dir := t.TempDir()
	path := filepath.Join(dir, "encoder_model.onnx")
	if err := os.WriteFile(path, []byte("FP32-WEIGHTS"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Quantize(context.Background(), path); err != nil {
		t.Fatalf("Quantize() error: %v", err)
	}

	// Same filename, new content — the canonical naming contract.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "encoder_model.onnx" {
		t.Errorf("quantize must replace the file in place, dir now has %d entries", len(entries))
	}
}

func TestMock_LoadIncompleteArtifact(t *testing.T) {
	m := NewMock()
	_, err := m.Load(context.Background(), t.TempDir())
	if !errors.Is(err, domain.ErrArtifactIncomplete) {
		t.Errorf("Load() of empty dir = %v, want ErrArtifactIncomplete", err)
	}
}

func TestMock_Translate(t *testing.T) {
	m := NewMock()
	dir := t.TempDir()
	for _, name := range []string{"encoder_model.onnx", "decoder_model.onnx", "vocab.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tr, err := m.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer tr.Close()

	out, err := tr.Translate(context.Background(), "Hello, how are you?")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if out == "" {
		t.Error("Translate() returned empty output")
	}
}

func TestTail(t *testing.T) {
	got := tail("a\nb\nc\nd", 2)
	if got != "c\nd" {
		t.Errorf("tail() = %q, want %q", got, "c\nd")
	}
}
