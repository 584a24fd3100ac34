package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"courtyard/pkg/platform/sentinel"
)

var kvWriteDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "courtyard_kv_write_duration_ms",
	Help:    "Latency of durable key-value writes in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Redis is the Redis-backed KV. This is the recommended backend when the
// server should survive restarts without a SQL database.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing go-redis client. Client lifecycle is managed by
// the caller.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	defer observeWrite(start)
	return r.client.Set(ctx, namespaced(key), value, 0).Err()
}

// SetMulti writes the batch inside MULTI/EXEC so readers never observe a
// partially flushed acceptance.
func (r *Redis) SetMulti(ctx context.Context, values map[string][]byte) error {
	start := time.Now()
	defer observeWrite(start)

	pipe := r.client.TxPipeline()
	for key, value := range values {
		pipe.Set(ctx, namespaced(key), value, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, namespaced(key)).Err()
}

func observeWrite(start time.Time) {
	kvWriteDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
