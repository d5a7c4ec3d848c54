package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Pair errors
	ErrInvalidPair = errors.New("invalid language pair key")
	ErrSelfPair    = errors.New("source and target language are identical")
	ErrPairUnknown = errors.New("language pair not in catalog")

	// Pipeline errors
	ErrFetchFailed  = errors.New("all candidate models failed to fetch")
	ErrExportFailed = errors.New("model export to ONNX failed")

	// Artifact errors
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrArtifactIncomplete = errors.New("artifact directory is missing required files")

	// Verifier errors
	ErrVerifyFailed     = errors.New("model verification failed")
	ErrEmptyTranslation = errors.New("model produced no output")

	// Toolchain errors
	ErrToolNotFound = errors.New("conversion tool not found")
)

// Failure reasons recorded in the progress log. These are stable strings:
// they appear in progress.json and in re-run targeting, so they must not
// change between releases.
const (
	ReasonFetchFailed  = "fetch_failed"
	ReasonExportFailed = "export_failed"
)
