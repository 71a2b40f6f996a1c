// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	// Bind is the listen address.
	Bind string `env:"BIND" envDefault:":8080"`

	// DBPath is the SQLite database path.
	DBPath string `env:"DB_PATH" envDefault:"./data/billchat.db"`

	// OpenAIAPIKey authenticates interpreter calls.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// OpenAIModel overrides the default vision model.
	OpenAIModel string `env:"OPENAI_MODEL"`

	// JWTSecret signs session tokens.
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-only-change-me"`

	// TokenDuration is how long session tokens remain valid.
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`

	// InterpreterTimeout bounds a single interpreter call.
	InterpreterTimeout time.Duration `env:"INTERPRETER_TIMEOUT" envDefault:"60s"`
}

// Load reads configuration from the environment, loading .env first if
// present (non-fatal if missing).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}
