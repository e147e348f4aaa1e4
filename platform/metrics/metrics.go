// Package metrics provides Prometheus metrics for the search service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forumsearch"

var (
	// ScanDuration measures full scan duration.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of search scans in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"partial"},
	)

	// PostsScanned observes how many post bodies one scan compared.
	PostsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "posts_scanned",
			Help:      "Distribution of post bodies compared per scan",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	// MatchesTotal counts matches before truncation.
	MatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Total number of matched posts before the result cap",
		},
	)

	// FetchFailuresTotal counts isolated fetch failures by unit.
	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Total number of skipped fetch units",
		},
		[]string{"unit"},
	)

	// RequestsTotal counts search requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"endpoint", "status"},
	)
)

// RecordScan records one completed scan.
func RecordScan(seconds float64, postsScanned, matches int, partial bool) {
	ScanDuration.WithLabelValues(strconv.FormatBool(partial)).Observe(seconds)
	PostsScanned.Observe(float64(postsScanned))
	MatchesTotal.Add(float64(matches))
}

// RecordFetchFailure records a skipped fetch unit ("reply_slice" or "post_batch").
func RecordFetchFailure(unit string) {
	FetchFailuresTotal.WithLabelValues(unit).Inc()
}

// RecordRequest records a finished request.
func RecordRequest(endpoint string, status int) {
	RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}
