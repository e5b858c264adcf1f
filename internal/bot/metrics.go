package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "botapi"

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	// commandsTotal counts handled messages by command (help, start, other)
	// and reply status.
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Total number of handled messages by command and status",
		},
		[]string{"command", "status"},
	)

	replyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "bot",
			Name:      "reply_duration_seconds",
			Help:      "Duration from receiving a message to the reply being sent",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)
)

// RecordCommand records one handled message.
func RecordCommand(command string, d time.Duration, success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	commandsTotal.WithLabelValues(command, status).Inc()
	replyDuration.Observe(d.Seconds())
}
