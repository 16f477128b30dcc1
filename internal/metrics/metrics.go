// Package metrics holds the Prometheus collectors the API exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "invoicer"

// LoginsTotal counts login attempts.
// Labels:
//   - method: "password", "google" or "refresh"
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of authentication attempts by method and result.",
	},
	[]string{"method", "result"},
)

var InvoicesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_created_total",
		Help:      "Total number of invoices created.",
	},
)

// InvoicesSentTotal counts send attempts.
// Label:
//   - result: "sent" or "failed"
var InvoicesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_sent_total",
		Help:      "Total number of invoice emails dispatched, labelled by result.",
	},
	[]string{"result"},
)

var PDFRenderDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pdf_render_duration_seconds",
		Help:      "Time spent rendering invoice PDFs.",
		Buckets:   prometheus.DefBuckets,
	},
)

var ClientsImportedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clients_imported_total",
		Help:      "Total number of clients created through CSV import.",
	},
)

func ObserveLogin(method string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	LoginsTotal.WithLabelValues(method, result).Inc()
}
