package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the immutable process configuration. Runtime-mutable
// values (admins, rates, payment numbers) live in the settings store
// instead.
type Config struct {
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"store.db"`
	BackupDir    string `env:"BACKUP_DIR" envDefault:"backup"`
	SettingsPath string `env:"SETTINGS_PATH" envDefault:"settings.env"`
}

// Load reads configuration from the environment, with a best-effort
// .env file load first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
