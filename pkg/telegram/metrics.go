package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the Bot API transport.
//
// They track:
// - request latency per API method (histogram)
// - request outcomes and errors by type (counters)
// - whether a long poll is currently in flight (gauge)

const metricsNamespace = "botapi"

var (
	// requestDuration measures how long Bot API calls take.
	// Labels:
	//   - method: API method (sendMessage, getUpdates, ...)
	//   - status: success, error, timeout
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "telegram",
			Name:      "request_duration_seconds",
			Help:      "Duration of Telegram Bot API requests in seconds",
			// Short calls finish within a second, long polls take up to timeout+10s.
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 30, 35},
		},
		[]string{"method", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "telegram",
			Name:      "requests_total",
			Help:      "Total number of Telegram Bot API requests",
		},
		[]string{"method", "status"},
	)

	// errorsTotal counts failures by type.
	// Labels:
	//   - error_type: network, timeout, transport, api_error, decode_error, precondition
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "telegram",
			Name:      "errors_total",
			Help:      "Total number of Telegram Bot API errors by type",
		},
		[]string{"method", "error_type"},
	)

	// longPollingActive is 1 while a getUpdates call is waiting on the server.
	longPollingActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "telegram",
			Name:      "long_polling_active",
			Help:      "Whether long polling is currently active (1 = active, 0 = inactive)",
		},
	)

	longPollingUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "telegram",
			Name:      "long_polling_updates_total",
			Help:      "Total number of updates received via long polling",
		},
	)
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusTimeout = "timeout"
)

const (
	errorTypeNetwork      = "network"
	errorTypeTimeout      = "timeout"
	errorTypeTransport    = "transport"
	errorTypeAPI          = "api_error"
	errorTypeDecode       = "decode_error"
	errorTypePrecondition = "precondition"
)

func recordRequestDuration(method, status string, durationSeconds float64) {
	requestDuration.WithLabelValues(method, status).Observe(durationSeconds)
	requestsTotal.WithLabelValues(method, status).Inc()
}

func recordError(method, errorType string) {
	errorsTotal.WithLabelValues(method, errorType).Inc()
}

func setLongPollingActive(active bool) {
	if active {
		longPollingActive.Set(1)
	} else {
		longPollingActive.Set(0)
	}
}

func recordLongPollingUpdates(count int) {
	longPollingUpdates.Add(float64(count))
}
