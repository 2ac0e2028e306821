package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. Registered against the default registerer and exposed
// on /metrics by the router.
var (
	StatementsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankstmt_statements_processed_total",
		Help: "Statements successfully processed end to end.",
	})

	StatementsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankstmt_statements_failed_total",
		Help: "Statement processing failures by stage.",
	}, []string{"stage"})

	PagesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankstmt_pages_rendered_total",
		Help: "PDF pages rendered to images.",
	})

	RowsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankstmt_rows_parsed_total",
		Help: "Transaction rows successfully parsed from model replies.",
	})

	RowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankstmt_rows_dropped_total",
		Help: "Transaction-like rows dropped for unparsable fields.",
	})

	ModelRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankstmt_model_retries_total",
		Help: "Retries issued against the model endpoint.",
	})

	ModelRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bankstmt_model_request_seconds",
		Help:    "Wall time of individual model API requests.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	ExportBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankstmt_export_bytes_total",
		Help: "Bytes of XLSX workbooks served.",
	})
)
