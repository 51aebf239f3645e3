// Package metrics holds the Prometheus collectors for search and rebuilds.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kanaseek",
			Name:      "searches_total",
			Help:      "Total number of searches by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kanaseek",
			Name:      "search_duration_seconds",
			Help:      "Search latency including highlight reconstruction",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode"},
	)

	RebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kanaseek",
			Name:      "rebuilds_total",
			Help:      "Total number of collection rebuilds by outcome",
		},
		[]string{"status"},
	)

	CollectionRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kanaseek",
			Name:      "collection_records",
			Help:      "Records in the current collection snapshot",
		},
	)
)

var registerOnce sync.Once

// Register registers the collectors with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SearchesTotal, SearchDuration, RebuildsTotal, CollectionRecords)
	})
}
