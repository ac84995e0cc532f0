package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	redisPoolHits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "creditnet_redis_pool_hits",
		Help: "Number of times a connection was found in the pool",
	})
	redisPoolMisses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "creditnet_redis_pool_misses",
		Help: "Number of times a connection was not found in the pool",
	})
)

// NewClient connects to redis and verifies the connection.
// Returns nil if addr is empty so cache-less deployments skip redis entirely.
func NewClient(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// CollectPoolStats copies pool counters into prometheus gauges.
func CollectPoolStats(client *redis.Client) {
	if client == nil {
		return
	}
	stats := client.PoolStats()
	redisPoolHits.Set(float64(stats.Hits))
	redisPoolMisses.Set(float64(stats.Misses))
}
