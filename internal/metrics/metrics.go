// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecobank_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobank_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// TransactionsTotal counts recorded transactions by kind.
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobank_transactions_total",
			Help: "Transactions appended to a ledger, by type",
		},
		[]string{"type"},
	)

	// AuthAttemptsTotal counts logins and registrations by outcome.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobank_auth_attempts_total",
			Help: "Authentication and registration attempts, by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	StoreSaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecobank_store_save_duration_seconds",
			Help:    "Time spent persisting the whole document",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreSaveErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecobank_store_save_errors_total",
			Help: "Failed document saves",
		},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobank_exports_total",
			Help: "Ledger events handled by the export worker, by outcome",
		},
		[]string{"outcome"},
	)

	SuspiciousRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobank_http_suspicious_requests_total",
			Help: "Requests flagged as likely probes, by reason",
		},
		[]string{"reason"},
	)
)

var initOnce sync.Once

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			TransactionsTotal, AuthAttemptsTotal,
			StoreSaveDuration, StoreSaveErrors,
			ExportsTotal, SuspiciousRequests,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records duration and count for an HTTP request. route should
// be the router pattern, not the raw path, to keep cardinality bounded.
func RecordRequest(method, route string, statusCode int, d time.Duration) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	RequestTotal.WithLabelValues(method, route, status).Inc()
}

func RecordTransaction(kind string) {
	TransactionsTotal.WithLabelValues(kind).Inc()
}

// RecordAuth records op ("login" or "register") with ok as the outcome.
func RecordAuth(op string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	AuthAttemptsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveSave records the duration of one document save.
func ObserveSave(d time.Duration, err error) {
	StoreSaveDuration.Observe(d.Seconds())
	if err != nil {
		StoreSaveErrors.Inc()
	}
}

// RecordExport records outcome ("exported", "skipped", "failed", "rejected").
func RecordExport(outcome string) {
	ExportsTotal.WithLabelValues(outcome).Inc()
}

func RecordSuspiciousRequest(reason string) {
	SuspiciousRequests.WithLabelValues(reason).Inc()
}
