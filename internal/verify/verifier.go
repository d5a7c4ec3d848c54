// Package verify smoke-tests converted artifacts by loading each pair
// directory into the translation engine and running one fixed sentence
// through it.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mtforge/mtforge/internal/cleanup"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/catalog"
	"github.com/mtforge/mtforge/internal/infra/metrics"
	"github.com/mtforge/mtforge/internal/pipeline"
	"github.com/mtforge/mtforge/internal/workspace"
)

// Verifier sweeps the models directory and records the outcome to
// test_results.json.
type Verifier struct {
	engine      domain.TranslationEngine
	modelsDir   string
	resultsPath string
	out         io.Writer
}

func New(ws *workspace.Workspace) *Verifier {
	return NewWithEngine(ws.Engine, ws.ModelsDir(), ws.ResultsPath())
}

// NewWithEngine builds a Verifier over explicit paths and an explicit
// engine, independent of a configured workspace.
func NewWithEngine(engine domain.TranslationEngine, modelsDir, resultsPath string) *Verifier {
	return &Verifier{
		engine:      engine,
		modelsDir:   modelsDir,
		resultsPath: resultsPath,
		out:         os.Stdout,
	}
}

func (v *Verifier) SetOutput(w io.Writer) { v.out = w }

// Run verifies every pair directory under the models dir. A pair
// passes when the engine loads its artifacts and produces a non-empty
// translation for the source language's test sentence. Individual
// failures do not abort the sweep.
func (v *Verifier) Run(ctx context.Context) (*domain.TestResult, error) {
	dirs, err := cleanup.PairDirs(v.modelsDir)
	if err != nil {
		return nil, err
	}

	result := &domain.TestResult{
		TestedAt: time.Now().UTC().Format(time.RFC3339),
		Total:    len(dirs),
		Passed:   []domain.PassedVerify{},
		Failed:   []domain.FailedVerify{},
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := filepath.Base(dir)
		pair, err := domain.ParsePair(key)
		if err != nil {
			continue
		}

		translation, err := v.verifyOne(ctx, dir, pair)
		if err != nil {
			fmt.Fprintf(v.out, "FAIL %s: %v\n", key, err)
			result.Failed = append(result.Failed, domain.FailedVerify{Pair: key, Error: err.Error()})
			metrics.VerifyFailed.Inc()
			continue
		}

		sizeMB := 0.0
		if meta, err := pipeline.ReadMetadata(dir); err == nil {
			sizeMB = meta.SizeMB
		}
		fmt.Fprintf(v.out, "PASS %s (%.1f MB): %s\n", key, sizeMB, translation)
		result.Passed = append(result.Passed, domain.PassedVerify{
			Pair:        key,
			SizeMB:      sizeMB,
			Translation: translation,
		})
		metrics.VerifyPassed.Inc()
	}

	if err := v.writeResults(result); err != nil {
		return result, err
	}
	return result, nil
}

func (v *Verifier) verifyOne(ctx context.Context, dir string, pair domain.LanguagePair) (string, error) {
	for _, name := range domain.RequiredArtifacts {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return "", fmt.Errorf("%w: missing %s", domain.ErrArtifactIncomplete, name)
		}
	}

	tr, err := v.engine.Load(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("load: %w", err)
	}
	defer tr.Close()

	sentence, ok := catalog.TestSentences[pair.Source]
	if !ok {
		sentence = catalog.TestSentences["en"]
	}
	out, err := tr.Translate(ctx, sentence)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if out == "" {
		return "", domain.ErrEmptyTranslation
	}
	return out, nil
}

func (v *Verifier) writeResults(result *domain.TestResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	tmp := v.resultsPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write test results: %w", err)
	}
	return os.Rename(tmp, v.resultsPath)
}

// ReadResults loads a previously persisted sweep summary.
func ReadResults(path string) (*domain.TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result domain.TestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse test results: %w", err)
	}
	return &result, nil
}
