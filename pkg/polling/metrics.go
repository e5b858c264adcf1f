package polling

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "botapi"

const (
	resultOK           = "ok"
	resultFetchError   = "fetch_error"
	resultHandlerError = "handler_error"
)

var (
	// cyclesTotal counts fetch cycles by result: ok, fetch_error, handler_error.
	// handler_error is only reported in dev mode, where it ends the loop.
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "polling",
			Name:      "cycles_total",
			Help:      "Total number of polling cycles by result",
		},
		[]string{"result"},
	)

	handlerErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "polling",
			Name:      "handler_errors_total",
			Help:      "Total number of updates whose handler returned an error or panicked",
		},
	)

	dispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "polling",
			Name:      "dispatched_updates_total",
			Help:      "Total number of updates passed to the handler, by update kind",
		},
		[]string{"kind"},
	)

	offsetGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "polling",
			Name:      "offset",
			Help:      "Id of the next update to fetch",
		},
	)

	runningGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "polling",
			Name:      "running",
			Help:      "Whether the polling loop is running (1 = running, 0 = idle)",
		},
	)
)
