package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtforge/mtforge/internal/domain"
)

// WriteMetadata writes metadata.json into an artifact directory.
// Indented — metadata stays human-readable even after the optimize
// pass minifies the other JSON files.
func WriteMetadata(artifactDir string, meta domain.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(artifactDir, "metadata.json"), data, 0o644)
}

// ReadMetadata reads metadata.json from an artifact directory.
func ReadMetadata(artifactDir string) (domain.Metadata, error) {
	var meta domain.Metadata
	data, err := os.ReadFile(filepath.Join(artifactDir, "metadata.json"))
	if err != nil {
		return meta, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}
