// Package metrics exposes Prometheus metrics for the build pipeline:
// columns built per inferred type, rows and coerced nulls, widening
// merges, and build latency. Registration happens at import time through
// promauto; serve them with promhttp in the embedding process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ColumnsBuilt counts finished column builds.
	// Labels: type (inferred logical type), outcome (success/failure).
	ColumnsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_columns_built_total",
			Help: "Total number of column builds",
		},
		[]string{"type", "outcome"},
	)

	// RowsProcessed counts rows appended across all column builds.
	RowsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quasar_rows_processed_total",
			Help: "Total number of rows appended to columns",
		},
	)

	// CoercedNulls counts values nulled out by the lenient failure
	// policy, labeled by column type.
	CoercedNulls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_coerced_nulls_total",
			Help: "Values replaced with nulls under the lenient policy",
		},
		[]string{"type"},
	)

	// Merges counts column merges by source and result type, which makes
	// unexpected widenings visible.
	Merges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_column_merges_total",
			Help: "Column merges by widened result type",
		},
		[]string{"from", "with", "to"},
	)

	// DictionaryOverflows counts enum columns that fell back to text.
	DictionaryOverflows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quasar_dictionary_overflows_total",
			Help: "Enum columns that exceeded the cardinality cap",
		},
	)

	// BuildLatency tracks per-column build duration in seconds.
	BuildLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quasar_column_build_seconds",
			Help:    "Column build latency in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-5, 10, 8), // 10µs .. 100s
		},
		[]string{"type"},
	)
)

// Timer measures one operation and reports it to a histogram on Stop.
type Timer struct {
	start time.Time
	typ   string
}

// NewBuildTimer starts timing a column build.
func NewBuildTimer(columnType string) *Timer {
	return &Timer{start: time.Now(), typ: columnType}
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	BuildLatency.WithLabelValues(t.typ).Observe(elapsed.Seconds())
	return elapsed
}
