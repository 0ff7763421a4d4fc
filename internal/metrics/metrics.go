// Package metrics exposes Prometheus counters for the search and telemetry
// paths, plus connection-pool gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MovieFetchesTotal counts upstream metadata fetches by outcome.
	MovieFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmscout_movie_fetches_total",
			Help: "Total number of movie metadata fetches",
		},
		[]string{"outcome"},
	)

	// SearchesRecordedTotal counts telemetry writes by result.
	SearchesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmscout_searches_recorded_total",
			Help: "Total number of search telemetry writes",
		},
		[]string{"result"},
	)

	// TrendingReadsTotal counts trending-list reads by outcome.
	TrendingReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmscout_trending_reads_total",
			Help: "Total number of trending list reads",
		},
		[]string{"outcome"},
	)
)

// PoolStats reports a point-in-time view of the database pool.
type PoolStats struct {
	TotalConns int32
	IdleConns  int32
}

// RegisterPoolStats registers gauges fed by the given stats func. The func
// must be safe to call from the Prometheus scrape goroutine.
func RegisterPoolStats(stats func() PoolStats) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "filmscout_db_pool_total_conns",
		Help: "Total connections currently in the database pool",
	}, func() float64 {
		return float64(stats().TotalConns)
	})
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "filmscout_db_pool_idle_conns",
		Help: "Idle connections currently in the database pool",
	}, func() float64 {
		return float64(stats().IdleConns)
	})
}
