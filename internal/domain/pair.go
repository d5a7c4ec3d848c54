// Package domain holds the core types of the conversion toolkit:
// language pairs, artifact sets, progress state, and the interfaces
// that separate the pipeline from its external collaborators.
package domain

import (
	"fmt"
	"strings"
)

// LanguagePair identifies one translation direction and its artifact
// directory ("{source}-{target}").
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Key returns the canonical pair key used in directory names, the
// progress log, and the artifact index (e.g. "en-tr").
func (p LanguagePair) Key() string {
	return p.Source + "-" + p.Target
}

func (p LanguagePair) String() string { return p.Key() }

// ParsePair parses a "src-tgt" key back into a LanguagePair.
func ParsePair(key string) (LanguagePair, error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return LanguagePair{}, fmt.Errorf("parse pair %q: %w", key, ErrInvalidPair)
	}
	if parts[0] == parts[1] {
		return LanguagePair{}, fmt.Errorf("parse pair %q: %w", key, ErrSelfPair)
	}
	return LanguagePair{Source: parts[0], Target: parts[1]}, nil
}
