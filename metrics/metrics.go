package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "testmeta"
)

var (
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_total",
		Help:      "Count of lifecycle events ingested",
	}, []string{
		"kind",
	})

	droppedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "dropped_events_total",
		Help:      "Count of lifecycle events dropped by the ingestion path",
	}, []string{
		"reason",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of closed test runs by overall status",
	}, []string{
		"status",
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "exports_total",
		Help:      "Count of JSON exports by result",
	}, []string{
		"result",
	})
)

// RecordError increments the error counter for the given error label.
func RecordError(errorLabel string) {
	errorsTotal.WithLabelValues(errorLabel).Inc()
}

// RecordEvent counts one ingested lifecycle event.
func RecordEvent(kind string) {
	eventsTotal.WithLabelValues(kind).Inc()
}

// RecordDroppedEvent counts one event dropped by the ingestion path.
func RecordDroppedEvent(reason string) {
	droppedEventsTotal.WithLabelValues(reason).Inc()
}

// RecordRun counts one closed test run.
func RecordRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// RecordExport counts one export attempt.
func RecordExport(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	exportsTotal.WithLabelValues(result).Inc()
}
