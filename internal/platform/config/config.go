// Package config reads process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"

	strutil "courtyard/pkg/platform/strings"
)

// Storage backends the state store can flush to.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr           string
	JWTSigningKey  string
	TokenTTL       time.Duration
	StorageBackend string
	RedisURL       string
	DatabaseURL    string
	KafkaBrokers   []string
	KafkaTopic     string
}

// FromEnv builds a Config from environment variables. Defaults favor local
// development: in-memory storage, no Kafka, a throwaway signing key.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("COURTYARD_ADDR", ":8080"),
		JWTSigningKey:  envOr("COURTYARD_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:       durationOr("COURTYARD_TOKEN_TTL", 24*time.Hour),
		StorageBackend: envOr("COURTYARD_STORAGE", StorageMemory),
		RedisURL:       os.Getenv("COURTYARD_REDIS_URL"),
		DatabaseURL:    os.Getenv("COURTYARD_DATABASE_URL"),
		KafkaTopic:     envOr("COURTYARD_KAFKA_AUDIT_TOPIC", "courtyard.audit"),
	}
	if brokers := os.Getenv("COURTYARD_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strutil.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
