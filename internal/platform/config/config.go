// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects where notifications and applicant records live.
type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendRedis    StoreBackend = "redis"
	BackendPostgres StoreBackend = "postgres"
)

// Server captures process-level configuration.
type Server struct {
	Addr       string
	AdminToken string
	LogFormat  string // "json" or "text"

	StoreBackend StoreBackend
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
}

// PostgresConfig holds connection settings for the postgres-backed stores.
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds connection settings for the redis-backed notification
// store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the decision audit publisher. Empty brokers
// disable audit publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables. Defaults keep a
// development instance runnable with zero environment.
func FromEnv() Server {
	cfg := Server{
		Addr:         envOr("AGRIFUND_ADDR", ":8080"),
		AdminToken:   envOr("AGRIFUND_ADMIN_TOKEN", "dev-admin-token"),
		LogFormat:    envOr("AGRIFUND_LOG_FORMAT", "text"),
		StoreBackend: StoreBackend(envOr("AGRIFUND_STORE", string(BackendMemory))),
		Postgres: PostgresConfig{
			DSN: os.Getenv("AGRIFUND_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("AGRIFUND_REDIS_URL"),
			PoolSize:     envIntOr("AGRIFUND_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("AGRIFUND_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: envOr("AGRIFUND_AUDIT_TOPIC", "agrifund.decision-audit"),
		},
	}
	if brokers := os.Getenv("AGRIFUND_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
