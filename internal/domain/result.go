package domain

import "fmt"

// TestResult is the verifier's per-sweep summary, persisted to
// test_results.json. It is independent of the progress log.
type TestResult struct {
	TestedAt string         `json:"tested_at"` // ISO-8601
	Total    int            `json:"total"`
	Passed   []PassedVerify `json:"passed"`
	Failed   []FailedVerify `json:"failed"`
}

// PassedVerify records a working model with its sample output.
type PassedVerify struct {
	Pair        string  `json:"pair"`
	SizeMB      float64 `json:"size_mb"`
	Translation string  `json:"translation"`
}

// FailedVerify records a model that failed to load or translate.
type FailedVerify struct {
	Pair  string `json:"pair"`
	Error string `json:"error"`
}

// AllPassed reports whether the sweep had no failures.
func (r *TestResult) AllPassed() bool { return len(r.Failed) == 0 }

// Err returns ErrVerifyFailed describing the sweep, or nil when every
// model passed. Callers use it to turn a recorded sweep into an exit
// status.
func (r *TestResult) Err() error {
	if r.AllPassed() {
		return nil
	}
	return fmt.Errorf("%d of %d models: %w", len(r.Failed), r.Total, ErrVerifyFailed)
}
