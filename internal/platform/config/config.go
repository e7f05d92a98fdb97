package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageBackend selects which store implementation the daemon wires up.
type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
	StorageRedis    StorageBackend = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr    string
	Storage StorageBackend

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the Kafka lifecycle event emitter. An empty
// broker list means events stay on the in-process bus.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SUBJECT_REGISTRY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	storage := StorageBackend(os.Getenv("SUBJECT_REGISTRY_STORAGE"))
	switch storage {
	case StoragePostgres, StorageRedis:
	default:
		storage = StorageMemory
	}

	topic := os.Getenv("SUBJECT_REGISTRY_KAFKA_TOPIC")
	if topic == "" {
		topic = "subject-lifecycle-events"
	}

	var brokers []string
	if raw := os.Getenv("SUBJECT_REGISTRY_KAFKA_BROKERS"); raw != "" {
		brokers = splitAndTrim(raw)
	}

	return Server{
		Addr:        addr,
		Storage:     storage,
		PostgresDSN: os.Getenv("SUBJECT_REGISTRY_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("SUBJECT_REGISTRY_REDIS_URL"),
			PoolSize:     envInt("SUBJECT_REGISTRY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SUBJECT_REGISTRY_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("SUBJECT_REGISTRY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SUBJECT_REGISTRY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SUBJECT_REGISTRY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
