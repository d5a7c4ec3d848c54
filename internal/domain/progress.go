package domain

// ProgressLog is the resumable state of one batch sweep, persisted as
// whole-file JSON after every pair. A pair key appears in at most one of
// Completed/Failed; Skipped is rebuilt on every run.
type ProgressLog struct {
	RunID      string       `json:"run_id"`
	StartedAt  string       `json:"started_at"` // ISO-8601
	TotalPairs int          `json:"total_pairs"`
	Completed  []string     `json:"completed"`
	Failed     []FailedPair `json:"failed"`
	Skipped    []string     `json:"skipped"`
	Current    string       `json:"current"`
}

// FailedPair records one pipeline failure with its reason string
// (ReasonFetchFailed, ReasonExportFailed).
type FailedPair struct {
	Pair   string `json:"pair"`
	Reason string `json:"reason"`
}

// IsCompleted reports whether the pair key was finished in a previous
// run. The batch runner treats this as a skip condition.
func (p *ProgressLog) IsCompleted(key string) bool {
	for _, k := range p.Completed {
		if k == key {
			return true
		}
	}
	return false
}

// MarkCompleted appends the key to Completed, dropping any stale failure
// record for the same pair so the disjointness invariant holds.
func (p *ProgressLog) MarkCompleted(key string) {
	if p.IsCompleted(key) {
		return
	}
	kept := p.Failed[:0]
	for _, f := range p.Failed {
		if f.Pair != key {
			kept = append(kept, f)
		}
	}
	p.Failed = kept
	p.Completed = append(p.Completed, key)
}

// MarkFailed records a failure, replacing any earlier failure entry for
// the same pair.
func (p *ProgressLog) MarkFailed(key, reason string) {
	for i := range p.Failed {
		if p.Failed[i].Pair == key {
			p.Failed[i].Reason = reason
			return
		}
	}
	p.Failed = append(p.Failed, FailedPair{Pair: key, Reason: reason})
}
