// Package metrics holds the Prometheus instrumentation shared by the QC
// components.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QCMetrics holds all Prometheus metrics for the QC pipeline
type QCMetrics struct {
	// Canonicalization metrics
	RecordsCanonicalized *prometheus.CounterVec
	CanonicalizeFailures *prometheus.CounterVec

	// Merkle metrics
	BytesHashed  prometheus.Counter
	ChunksHashed prometheus.Counter

	// Comparison metrics
	Comparisons           *prometheus.CounterVec
	FastPathHits          *prometheus.CounterVec
	ComparisonDifferences prometheus.Histogram
	ComparisonDuration    *prometheus.HistogramVec

	// Sampling metrics
	SamplingPlans *prometheus.CounterVec

	// Decision metrics
	DisputeDecisions         *prometheus.CounterVec
	CertificateVerifications *prometheus.CounterVec
}

var (
	qcMetricsOnce sync.Once
	qcMetrics     *QCMetrics
)

// NewQCMetrics creates and registers QC metrics (singleton pattern)
func NewQCMetrics() *QCMetrics {
	qcMetricsOnce.Do(func() {
		qcMetrics = &QCMetrics{
			RecordsCanonicalized: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "records_canonicalized_total",
					Help:      "Total records written in canonical form",
				},
				[]string{"schema_id"},
			),
			CanonicalizeFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "canonicalize_failures_total",
					Help:      "Total canonicalization requests rejected",
				},
				[]string{"schema_id", "code"},
			),
			BytesHashed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "merkle_bytes_hashed_total",
					Help:      "Total bytes consumed by the merkle hasher",
				},
			),
			ChunksHashed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "merkle_chunks_hashed_total",
					Help:      "Total merkle leaves computed",
				},
			),
			Comparisons: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "comparisons_total",
					Help:      "Total output comparisons by mode and verdict",
				},
				[]string{"mode", "verdict"},
			),
			FastPathHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "comparison_fast_path_total",
					Help:      "Comparisons settled by merkle root equality",
				},
				[]string{"mode"},
			),
			ComparisonDifferences: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "comparison_differences",
					Help:      "Differences counted per slow-path comparison",
					Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 1000},
				},
			),
			ComparisonDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "comparison_seconds",
					Help:      "Comparison wall time in seconds",
					Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
				},
				[]string{"mode", "path"},
			),
			SamplingPlans: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "sampling_plans_total",
					Help:      "Sampling plans computed, by duplication decision",
				},
				[]string{"dup_selected", "seed_source"},
			),
			DisputeDecisions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "dispute_decisions_total",
					Help:      "Dispute decisions by outcome",
				},
				[]string{"outcome"},
			),
			CertificateVerifications: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "qc",
					Name:      "certificate_verifications_total",
					Help:      "GF(2) certificate checks by result",
				},
				[]string{"result"},
			),
		}
	})
	return qcMetrics
}
