package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruiji_corpus_appends_total",
		Help: "Number of corpus entries appended via the API.",
	})
	listQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruiji_list_queries_total",
		Help: "Number of corpus list queries served.",
	})
	similarQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruiji_similar_queries_total",
		Help: "Number of similarity queries served.",
	})
	similarDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ruiji_similar_duration_seconds",
		Help:    "Latency of similarity queries.",
		Buckets: prometheus.DefBuckets,
	})
)
