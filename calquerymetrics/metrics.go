// Package calquerymetrics exposes the engine's prometheus metrics,
// grounded on artpromedia-email/services/imap-server/imap/server.go's
// package-level promauto vars: counters/histograms registered once at
// package init, incremented by whichever package owns the event being
// measured.
package calquerymetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts executed queries by their result ordering.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calquery_queries_total",
		Help: "Total queries executed, by ordering mode",
	}, []string{"ordering"})

	// QueryDuration measures wall-clock query execution time.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calquery_query_duration_seconds",
		Help:    "Query execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"ordering"})

	// ResultsReturned measures how many results a query admitted.
	ResultsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calquery_results_returned",
		Help:    "Number of results returned per query",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500},
	})

	// DanglingReferencesTotal counts index entries skipped because the
	// event store no longer held the named uid.
	DanglingReferencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calquery_dangling_references_total",
		Help: "Total dangling index references skipped, by property family",
	}, []string{"family"})

	// CalendarEvents tracks how many events a calendar currently holds.
	CalendarEvents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "calquery_calendar_events",
		Help: "Number of events currently held per calendar",
	}, []string{"calendar"})
)
