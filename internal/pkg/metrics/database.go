// Package metrics provides Prometheus collectors shared by the storage and
// service layers. It has no internal imports so that both database and
// middleware packages can depend on it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SlowQueryThreshold is the duration above which a query counts as slow
const SlowQueryThreshold = 100 * time.Millisecond

var (
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartcrop_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"database"},
	)

	dbQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"database"},
	)

	dbSlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrop_db_slow_queries_total",
			Help: "Total number of slow database queries",
		},
		[]string{"database"},
	)
)

// RecordQuery records the duration and outcome of one database round trip
func RecordQuery(database string, duration time.Duration, err error) {
	dbQueryDuration.WithLabelValues(database).Observe(duration.Seconds())
	if duration > SlowQueryThreshold {
		dbSlowQueries.WithLabelValues(database).Inc()
	}
	if err != nil {
		dbQueryErrors.WithLabelValues(database).Inc()
	}
}
