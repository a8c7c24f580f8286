package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// PostgresConfig holds the database connection settings. An empty URL means
// the in-memory stores are used instead.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds Redis connection settings. An empty URL means the
// in-memory delivery tracker is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds event sink settings. Empty brokers mean events stay on
// the in-memory sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config is the full application configuration.
type Config struct {
	Server   Server
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	// TransitionMaxAttempts bounds the engine's optimistic retry cycle.
	TransitionMaxAttempts int
}

// FromEnv builds the configuration from environment variables so main stays
// lean.
func FromEnv() Config {
	addr := os.Getenv("BLOODLINE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "bloodline.transitions"
	}

	maxAttempts := 3
	if raw := os.Getenv("TRANSITION_MAX_RETRIES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxAttempts = n
		}
	}

	return Config{
		Server: Server{
			Addr:          addr,
			JWTSigningKey: jwtSigningKey,
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   topic,
		},
		TransitionMaxAttempts: maxAttempts,
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
