package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "courtyard.audit", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("COURTYARD_ADDR", ":9090")
	t.Setenv("COURTYARD_STORAGE", StorageRedis)
	t.Setenv("COURTYARD_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("COURTYARD_TOKEN_TTL", "30m")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
}

func TestFromEnv_InvalidTTLFallsBack(t *testing.T) {
	t.Setenv("COURTYARD_TOKEN_TTL", "not-a-duration")

	cfg := FromEnv()
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestFromEnv_BrokerListIsCleaned(t *testing.T) {
	t.Setenv("COURTYARD_KAFKA_BROKERS", " kafka-1:9092 ,kafka-2:9092,, kafka-1:9092 ")

	cfg := FromEnv()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}
