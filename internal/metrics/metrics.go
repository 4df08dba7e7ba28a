// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StudentMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "student_mutations_total",
			Help: "Total number of student create/update/delete operations",
		},
		[]string{"action"},
	)

	RosterSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "student_roster_size",
			Help: "Current number of student records",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
