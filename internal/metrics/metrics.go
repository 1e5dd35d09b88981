package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tradeexplorer"

var (
	// ListingRequests counts object-storage listing pages by result.
	ListingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "partition_listing_requests_total",
		Help:      "Object storage listing requests by result",
	}, []string{"result"})

	// CacheLookups counts cache lookups by cache and result (hit, miss, shared).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Partition and dataset cache lookups by result",
	}, []string{"cache", "result"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Analytic query duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"result"})

	PipelineRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_rows_total",
		Help:      "Result rows produced per aggregation pipeline",
	}, []string{"pipeline"})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
