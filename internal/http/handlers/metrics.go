package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsIngestedTotal *prometheus.CounterVec
	eventsDeletedTotal  prometheus.Counter
	eventsRejectedTotal *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
)

// MetricsNamespace prefixes every metric this service registers.
const MetricsNamespace = "logsight"

func InitPrometheusMetrics() {
	eventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_ingested_total",
			Help:      "Total number of persisted log events.",
		},
		[]string{"level"},
	)
	eventsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_deleted_total",
			Help:      "Total number of deleted log events.",
		},
	)
	eventsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "events_rejected_total",
			Help:      "Total number of ingestion payloads rejected at validation.",
		},
		[]string{"reason"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of handled HTTP requests.",
		},
		[]string{"method", "status"},
	)
	prometheus.MustRegister(eventsIngestedTotal, eventsDeletedTotal, eventsRejectedTotal, httpRequestsTotal)
}
