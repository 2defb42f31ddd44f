// Package config loads the server configuration from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string `env:"FABLETURN_LISTEN_ADDR" envDefault:":8080"`

	// Empty DSN selects the in-memory store (dev mode).
	DBDSN         string `env:"FABLETURN_DB_DSN"`
	MigrationsDir string `env:"FABLETURN_MIGRATIONS_DIR" envDefault:"./migrations"`

	SeedSalt string `env:"FABLETURN_SEED_SALT"`

	GeminiAPIKey string  `env:"GEMINI_API_KEY"`
	GeminiModel  string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-pro"`
	Temperature  float32 `env:"FABLETURN_TEMPERATURE" envDefault:"0.8"`

	MinNarrationWords int `env:"FABLETURN_MIN_NARRATION_WORDS" envDefault:"40"`
	MaxNarrationWords int `env:"FABLETURN_MAX_NARRATION_WORDS" envDefault:"220"`
	IntroMinWords     int `env:"FABLETURN_INTRO_MIN_WORDS" envDefault:"80"`
	IntroMaxWords     int `env:"FABLETURN_INTRO_MAX_WORDS" envDefault:"320"`

	IdempotencyTTL time.Duration `env:"FABLETURN_IDEMPOTENCY_TTL" envDefault:"20s"`

	LogDevel bool `env:"FABLETURN_LOG_DEVEL" envDefault:"false"`
}

func Load() (Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MinNarrationWords <= 0 || cfg.MaxNarrationWords <= cfg.MinNarrationWords {
		return Config{}, fmt.Errorf("invalid narration word band %d-%d", cfg.MinNarrationWords, cfg.MaxNarrationWords)
	}
	return cfg, nil
}
