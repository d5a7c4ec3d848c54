package domain

// StageOutcome is the result of a best-effort pipeline stage.
// Mandatory stages fail with an error; the quantize stage instead
// reports one of these and never aborts the pair.
type StageOutcome int

const (
	StageSucceeded     StageOutcome = iota
	StageSkipped                    // attempted, failed, non-fatal
	StageNotApplicable              // disabled by configuration
)

func (o StageOutcome) String() string {
	switch o {
	case StageSucceeded:
		return "succeeded"
	case StageSkipped:
		return "skipped"
	case StageNotApplicable:
		return "not applicable"
	default:
		return "unknown"
	}
}
