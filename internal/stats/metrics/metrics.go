package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LeaderboardCacheHits   prometheus.Counter
	LeaderboardCacheMisses prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LeaderboardCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_leaderboard_cache_hits_total",
			Help: "Total number of leaderboard reads served from cache",
		}),
		LeaderboardCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_leaderboard_cache_misses_total",
			Help: "Total number of leaderboard reads computed from the stores",
		}),
	}
}
