// Package config loads server settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MemoryDBPath selects the in-memory store instead of SQLite.
const MemoryDBPath = ":memory:"

// Config holds every runtime setting.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"5175"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"console"` // console | json
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`

	DBPath       string `env:"DB_PATH" envDefault:"./data/hangman.db"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"*"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`

	MaxAttempts int    `env:"HANGMAN_MAX_ATTEMPTS" envDefault:"6"`
	WordsFile   string `env:"HANGMAN_WORDS_FILE"`

	ValkeyAddr     string        `env:"VALKEY_ADDR"`
	ValkeyPassword string        `env:"VALKEY_PASSWORD"`
	CacheTTL       time.Duration `env:"HANGMAN_CACHE_TTL" envDefault:"30m"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

const devJWTSecret = "dev_secret_change_me"

// Load reads .env files (if present) and parses the environment.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are expected outside development.
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether APP_ENV is "production".
func (c *Config) Production() bool { return c.Env == "production" }

// UseMemoryStore reports whether games live only in process memory.
func (c *Config) UseMemoryStore() bool { return c.DBPath == MemoryDBPath }

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("HANGMAN_MAX_ATTEMPTS must be >= 1, got %d", c.MaxAttempts))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.JWTExpiresDays < 1 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_DAYS must be >= 1, got %d", c.JWTExpiresDays))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
