package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDatabaseURL = "host=localhost port=5432 user=postgres password=postgres dbname=expenses sslmode=disable"

type Config struct {
	HTTPAddr     string
	DatabaseURL  string
	EventBuffer  int
	KafkaBrokers []string
	KafkaTopic   string
	SessionTTL   time.Duration
}

// Load reads .env from the working directory when present. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     env("HTTP_ADDR", ":5000"),
		DatabaseURL:  env("DATABASE_URL", defaultDatabaseURL),
		KafkaBrokers: list(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   env("KAFKA_TOPIC", "expense_events"),
	}

	buffer, err := strconv.Atoi(env("EVENT_BUFFER", "100"))
	if err != nil || buffer < 1 {
		return nil, fmt.Errorf("EVENT_BUFFER must be a positive integer, got %q", os.Getenv("EVENT_BUFFER"))
	}
	cfg.EventBuffer = buffer

	ttl, err := time.ParseDuration(env("SESSION_TTL", "168h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be a positive duration, got %q", os.Getenv("SESSION_TTL"))
	}
	cfg.SessionTTL = ttl

	return cfg, nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
