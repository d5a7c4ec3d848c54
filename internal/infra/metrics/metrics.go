// Package metrics provides Prometheus metrics for mtforge: counters and
// gauges for batch conversion, cleanup, and verification. Exposed on
// /metrics by the status server when telemetry is enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Batch conversion ───────────────────────────────────────────────────────

// PairsCompleted counts pairs converted successfully.
var PairsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "pairs_completed_total",
	Help:      "Total language pairs converted successfully.",
})

// PairsFailed counts pipeline failures by reason.
var PairsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "pairs_failed_total",
	Help:      "Total language pairs that failed conversion.",
}, []string{"reason"})

// PairsSkipped counts pairs skipped on resume.
var PairsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "pairs_skipped_total",
	Help:      "Total language pairs skipped because a previous run completed them.",
})

// QuantizeSkipped counts non-fatal quantization failures.
var QuantizeSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "quantize_skipped_total",
	Help:      "Total pairs left unquantized after a best-effort quantize failure.",
})

// BatchProgress is the fraction of the current sweep processed so far.
var BatchProgress = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mtforge",
	Name:      "batch_progress_ratio",
	Help:      "Fraction of catalog pairs processed in the current sweep.",
})

// ArtifactBytes is the total on-disk size of converted artifacts.
var ArtifactBytes = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mtforge",
	Name:      "artifact_bytes",
	Help:      "Total bytes of converted artifacts on disk.",
})

// ─── Cleanup ────────────────────────────────────────────────────────────────

// BytesReclaimed counts bytes deleted by cleanup and prune passes.
var BytesReclaimed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "bytes_reclaimed_total",
	Help:      "Total bytes reclaimed by deleting disallowed artifact files.",
})

// ─── Verification ───────────────────────────────────────────────────────────

// VerifyPassed counts models that passed smoke verification.
var VerifyPassed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "verify_passed_total",
	Help:      "Total artifact sets that passed smoke verification.",
})

// VerifyFailed counts models that failed smoke verification.
var VerifyFailed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mtforge",
	Name:      "verify_failed_total",
	Help:      "Total artifact sets that failed smoke verification.",
})
