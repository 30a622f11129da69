package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration, populated from environment
// variables so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	// DatabaseURL selects the Postgres-backed stores when set. When empty
	// the service runs on in-memory stores, which are non-durable and only
	// suitable for development and tests.
	DatabaseURL string

	Redis RedisConfig
	SMTP  SMTPConfig
	Kafka KafkaConfig

	Lockout LockoutConfig
}

// RedisConfig configures the optional Redis-backed token revocation list.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SMTPConfig configures outbound transactional email. Sending is disabled
// when Host is empty.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	BaseURL     string
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LockoutConfig bounds repeated failed logins per identity.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
}

// ErrMissingSigningKey is returned when ZOLO_JWT_SIGNING_KEY is unset. The
// service refuses to start rather than fall back to a compiled-in secret.
var ErrMissingSigningKey = errors.New("ZOLO_JWT_SIGNING_KEY is required")

// Load builds a Config from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Addr:          envOr("ZOLO_ADDR", ":8000"),
		JWTSigningKey: os.Getenv("ZOLO_JWT_SIGNING_KEY"),
		TokenTTL:      24 * time.Hour,
		DatabaseURL:   os.Getenv("ZOLO_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("ZOLO_REDIS_URL"),
			PoolSize:     envIntOr("ZOLO_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("ZOLO_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		SMTP: SMTPConfig{
			Host:        os.Getenv("ZOLO_SMTP_HOST"),
			Port:        envIntOr("ZOLO_SMTP_PORT", 587),
			Username:    os.Getenv("ZOLO_SMTP_USER"),
			Password:    os.Getenv("ZOLO_SMTP_PASSWORD"),
			FromAddress: envOr("ZOLO_EMAIL_FROM", "no-reply@techzolo.com"),
			BaseURL:     envOr("ZOLO_BASE_URL", "http://localhost:8000"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("ZOLO_KAFKA_BROKERS"), ","),
			Topic:   envOr("ZOLO_KAFKA_AUDIT_TOPIC", "zolo.audit.events"),
		},
		Lockout: LockoutConfig{
			Threshold: envIntOr("ZOLO_LOCKOUT_THRESHOLD", 10),
			Window:    15 * time.Minute,
		},
	}

	if cfg.JWTSigningKey == "" {
		return Config{}, ErrMissingSigningKey
	}

	if ttl := os.Getenv("ZOLO_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("parse ZOLO_TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
