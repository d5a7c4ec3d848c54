// Package hub downloads upstream model snapshots over HTTP.
// It streams the checkpoint and tokenizer files of one hub repo into a
// local snapshot directory, from which the exporter produces ONNX.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Snapshot files that make up one Marian checkpoint. The exporter needs
// all of these; generation and special-token configs are tolerated as
// missing since older repos never shipped them.
var requiredFiles = []string{
	"config.json",
	"pytorch_model.bin",
	"tokenizer_config.json",
	"vocab.json",
	"source.spm",
	"target.spm",
}

var optionalFiles = []string{
	"generation_config.json",
	"special_tokens_map.json",
}

// Fetcher implements domain.ModelFetcher against a HuggingFace-style
// hub: files resolve at {endpoint}/{repo}/resolve/main/{file}.
type Fetcher struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewFetcher creates a Fetcher against endpoint (usually
// "https://huggingface.co"). token is sent as a bearer token when set,
// for gated repos.
func NewFetcher(endpoint, token string) *Fetcher {
	return &Fetcher{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 0}, // No timeout for large checkpoints
	}
}

// FileURL returns the direct download URL for one file of a repo.
func (f *Fetcher) FileURL(repo, file string) string {
	return f.endpoint + "/" + repo + "/resolve/main/" + file
}

// Fetch downloads the snapshot for model into dest. A missing required
// file fails the whole fetch; dest is left as-is for the caller to
// clean up. First the small required configs, then the checkpoint, so a
// nonexistent repo fails fast before any large transfer starts.
func (f *Fetcher) Fetch(ctx context.Context, model, dest string, progress func(status string, pct float64)) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	total := len(requiredFiles)
	for i, name := range requiredFiles {
		if progress != nil {
			progress(fmt.Sprintf("fetching %s/%s", model, name), float64(i)/float64(total)*100)
		}
		if err := f.fetchFile(ctx, model, name, dest, progress); err != nil {
			return fmt.Errorf("fetch %s from %s: %w", name, model, err)
		}
	}

	for _, name := range optionalFiles {
		if err := f.fetchFile(ctx, model, name, dest, nil); err != nil {
			continue // optional
		}
	}

	if progress != nil {
		progress("snapshot complete", 100)
	}
	return nil
}

// fetchFile streams one file to dest/name via a temp file + rename, so
// an interrupted download never leaves a truncated file behind.
func (f *Fetcher) fetchFile(ctx context.Context, repo, name, dest string, progress func(status string, pct float64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.FileURL(repo, name), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "mtforge/0.1.0")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	tmpPath := filepath.Join(dest, "."+name+".tmp")
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}

	buf := make([]byte, 256*1024)
	var downloaded int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				os.Remove(tmpPath)
				return fmt.Errorf("write file: %w", err)
			}
			downloaded += int64(n)

			if progress != nil && resp.ContentLength > 0 {
				pct := float64(downloaded) / float64(resp.ContentLength) * 100
				progress(fmt.Sprintf("downloading %s / %s",
					humanize.IBytes(uint64(downloaded)),
					humanize.IBytes(uint64(resp.ContentLength))), pct)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("download interrupted: %w", readErr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, filepath.Join(dest, name))
}
