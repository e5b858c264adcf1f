package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "botapi"

var (
	// storageSizeBytes shows the total size of the database file in bytes.
	storageSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "storage",
			Name:      "size_bytes",
			Help:      "Total size of the database file in bytes",
		},
	)

	// storageOperationDuration measures offset reads and writes.
	storageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Duration of storage operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	storageOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "storage",
			Name:      "operation_errors_total",
			Help:      "Total number of failed storage operations",
		},
		[]string{"operation"},
	)
)

// SetStorageSize updates the storage size metric.
func SetStorageSize(bytes int64) {
	storageSizeBytes.Set(float64(bytes))
}

// RecordOperation records the duration and outcome of a storage operation.
func RecordOperation(operation string, d time.Duration, err error) {
	storageOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		storageOperationErrors.WithLabelValues(operation).Inc()
	}
}
