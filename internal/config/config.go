package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort    string
	LogLevel   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// LockTimeout bounds how long a transaction waits for a coupon or
	// stock row lock before failing with a lock-timeout error.
	LockTimeout time.Duration

	// Retry budget for optimistic balance writes.
	BalanceRetryMax     int
	BalanceRetryBackoff time.Duration

	KafkaBrokers           string
	KafkaClientID          string
	AuditTopicPartitions   string
	AuditReplicationFactor string
	AuditEnabled           string
}

func Load() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "orderingdb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		LockTimeout:         getDuration("LOCK_TIMEOUT_MS", 3000),
		BalanceRetryMax:     parseInt(getEnv("BALANCE_RETRY_MAX", "3"), 3),
		BalanceRetryBackoff: getDuration("BALANCE_RETRY_BACKOFF_MS", 50),

		KafkaBrokers:           getEnv("KAFKA_BROKERS", "kafka:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "ordering-api"),
		AuditTopicPartitions:   getEnv("AUDIT_TOPIC_PARTITIONS", "3"),
		AuditReplicationFactor: getEnv("AUDIT_REPLICATION_FACTOR", "1"),
		AuditEnabled:           getEnv("AUDIT_ENABLED", "true"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultMs int) time.Duration {
	ms := parseInt(os.Getenv(key), defaultMs)
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) TopicPartitions() int32 {
	return int32(parseInt(c.AuditTopicPartitions, 3))
}

func (c *Config) ReplicationFactor() int16 {
	return int16(parseInt(c.AuditReplicationFactor, 1))
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
