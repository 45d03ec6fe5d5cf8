// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMemory       = "memory"
	StoreSQLite       = "sqlite"
	StorePostgres     = "postgres"
	StoreGormPostgres = "gorm-postgres"
)

// Config holds the process settings.
type Config struct {
	StoreDriver      string
	DatabaseURL      string
	LogLevel         slog.Level
	SeedParticipants bool
}

// Load reads .env files (if any) and then the environment. Variables already
// set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		StoreDriver: env("STORE_DRIVER", StoreSQLite),
		DatabaseURL: env("DATABASE_URL", "mentorship.db"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	level, err := ParseLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	if v := os.Getenv("SEED_PARTICIPANTS"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SEED_PARTICIPANTS: %w", err)
		}
		cfg.SeedParticipants = seed
	}
	return cfg, nil
}

// Validate checks that the store driver is known.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite, StorePostgres, StoreGormPostgres:
		return nil
	}
	return fmt.Errorf("unknown store driver %q", c.StoreDriver)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
