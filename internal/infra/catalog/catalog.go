// Package catalog is the registry of supported languages and the
// upstream Helsinki-NLP models that translate between them.
// This is mtforge's "model phonebook" — it maps a language pair like
// en-tr to the ordered list of hub repos worth trying for it.
package catalog

import (
	"sort"

	"github.com/mtforge/mtforge/internal/domain"
)

// Languages is the fixed, closed set of supported language codes.
var Languages = []string{"tr", "en", "de", "fr", "it", "pt", "es"}

// LanguageNames maps codes to display names.
var LanguageNames = map[string]string{
	"tr": "Turkish",
	"en": "English",
	"de": "German",
	"fr": "French",
	"it": "Italian",
	"pt": "Portuguese",
	"es": "Spanish",
}

// romance languages that share the grouped en-ROMANCE model.
var romance = map[string]bool{"es": true, "fr": true, "it": true, "pt": true}

// TestSentences holds one fixed smoke-test input per source language,
// used by the verifier.
var TestSentences = map[string]string{
	"en": "Hello, how are you?",
	"tr": "Merhaba, nasılsın?",
	"de": "Hallo, wie geht es dir?",
	"fr": "Bonjour, comment allez-vous?",
	"it": "Ciao, come stai?",
	"pt": "Olá, como você está?",
	"es": "Hola, ¿cómo estás?",
}

// Pairs returns every ordered language pair with source ≠ target,
// in deterministic catalog order (42 pairs for 7 languages).
func Pairs() []domain.LanguagePair {
	pairs := make([]domain.LanguagePair, 0, len(Languages)*(len(Languages)-1))
	for _, source := range Languages {
		for _, target := range Languages {
			if source != target {
				pairs = append(pairs, domain.LanguagePair{Source: source, Target: target})
			}
		}
	}
	return pairs
}

// Candidates returns the hub model identifiers to try for a pair, in
// priority order, first success wins. Some upstream naming patterns
// only exist for some pairs, hence the fallback list.
func Candidates(pair domain.LanguagePair) []string {
	s, t := pair.Source, pair.Target

	options := []string{
		"Helsinki-NLP/opus-mt-" + s + "-" + t,
		"Helsinki-NLP/opus-mt-tc-big-" + s + "-" + t,
		"Helsinki-NLP/opus-tatoeba-" + s + "-" + t,
	}

	// Pairs touching English usually have a tc-big variant: promote it.
	if s == "en" || t == "en" {
		options = prepend(options, "Helsinki-NLP/opus-mt-tc-big-"+s+"-"+t)
	}

	// English to Romance languages is covered by one grouped model.
	if s == "en" && romance[t] {
		options = prepend(options, "Helsinki-NLP/opus-mt-en-ROMANCE")
	}

	return options
}

// prepend inserts id at the front, removing any later duplicate so the
// list stays deduplicated with first position winning.
func prepend(options []string, id string) []string {
	out := make([]string, 0, len(options)+1)
	out = append(out, id)
	for _, o := range options {
		if o != id {
			out = append(out, o)
		}
	}
	return out
}

// Name returns the display name for a language code, falling back to
// the code itself.
func Name(code string) string {
	if n, ok := LanguageNames[code]; ok {
		return n
	}
	return code
}

// Contains reports whether the pair belongs to the catalog.
func Contains(pair domain.LanguagePair) bool {
	return LanguageNames[pair.Source] != "" && LanguageNames[pair.Target] != "" &&
		pair.Source != pair.Target
}

// SortedCodes returns the language codes in alphabetical order, for
// stable display output.
func SortedCodes() []string {
	codes := append([]string(nil), Languages...)
	sort.Strings(codes)
	return codes
}
