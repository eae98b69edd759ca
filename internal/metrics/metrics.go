// Package metrics exposes the client's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionTokenOps counts session token updates by operation and status.
	SessionTokenOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundoc_session_token_ops_total",
			Help: "Total number of session token operations",
		},
		[]string{"operation", "status"},
	)
	// QueryPages counts result pages yielded to callers.
	QueryPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundoc_query_pages_total",
			Help: "Total number of query result pages emitted",
		},
		[]string{"status"},
	)
	// PipelineBatches counts query pipeline steps.
	PipelineBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bundoc_query_pipeline_batches_total",
			Help: "Total number of query pipeline batches executed",
		},
	)
	// PartitionFetchDuration is the latency of per-partition query fetches.
	PartitionFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundoc_partition_fetch_duration_seconds",
			Help:    "Per-partition query fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
