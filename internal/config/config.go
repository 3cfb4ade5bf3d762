// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"eventgate"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Redis holds the optional event-config cache backend. An empty URL means
// the cache falls back to the in-process implementation.
type Redis struct {
	URL string `env:"REDIS_URL"`
}

// Kafka holds the optional audit sink. No brokers means audit events stay in
// the local store only.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"eventgate.audit"`
}

// Config is the full service configuration.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// QRSigningKey signs QR payload tokens. The payload is a lookup key,
	// not a secret; the signature only gives tamper evidence on scans.
	QRSigningKey string `env:"QR_SIGNING_KEY" envDefault:"dev-qr-signing-key"`

	EventCacheTTL  time.Duration `env:"EVENT_CACHE_TTL" envDefault:"5m"`
	EventCacheSize int           `env:"EVENT_CACHE_SIZE" envDefault:"1024"`

	Database Database
	Redis    Redis
	Kafka    Kafka
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
