// Package metrics holds the lifecycle and file store collectors.
// HTTP request metrics come from fiberprometheus on the same default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rcf",
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Total number of lifecycle operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rcf",
			Subsystem: "filestore",
			Name:      "uploads_total",
			Help:      "Total number of file store uploads.",
		},
		[]string{"backend", "success"},
	)

	uploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rcf",
			Subsystem: "filestore",
			Name:      "upload_duration_seconds",
			Help:      "Duration of file store uploads.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"backend"},
	)

	slotDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rcf",
			Subsystem: "slots",
			Name:      "count_drift_total",
			Help:      "Slots found with an application count below the approved total.",
		},
	)
)

func init() {
	prometheus.MustRegister(transitions, uploads, uploadDuration, slotDrift)
}

// RecordOperation counts one lifecycle operation; outcome is "ok" or an error kind
func RecordOperation(op, outcome string) {
	transitions.WithLabelValues(op, outcome).Inc()
}

// RecordUpload records one file store upload
func RecordUpload(backend string, started time.Time, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	uploads.WithLabelValues(backend, success).Inc()
	uploadDuration.WithLabelValues(backend).Observe(time.Since(started).Seconds())
}

// RecordSlotDrift counts drifted slots found by a reconcile run
func RecordSlotDrift(n int) {
	if n > 0 {
		slotDrift.Add(float64(n))
	}
}
