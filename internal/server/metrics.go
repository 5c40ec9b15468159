package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts queries by relation, mode and outcome.
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natded_queries_total",
		Help: "Total relation queries by relation, mode and result",
	}, []string{"relation", "mode", "result"})

	// queryDuration tracks derivation latency.
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natded_query_duration_seconds",
		Help:    "Relation query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"relation", "mode"})

	relationsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "natded_relations_loaded",
		Help: "Number of relations currently served",
	})

	// reloadsTotal counts rule reloads by result.
	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natded_reloads_total",
		Help: "Total rule reloads by result",
	}, []string{"result"})
)
