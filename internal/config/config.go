// Package config содержит логику чтения конфигурации клиента бронирования.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации клиента и заглушки бэкенда.
type Config struct {
	APIAddress  string `env:"HOTELBOOK_API_ADDRESS"`
	RunAddress  string `env:"RUN_ADDRESS"`
	SessionFile string `env:"HOTELBOOK_SESSION_FILE"`
	Currency    string `env:"HOTELBOOK_CURRENCY"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envAPIAddress := cfg.APIAddress
	envRunAddress := cfg.RunAddress
	envSessionFile := cfg.SessionFile
	envCurrency := cfg.Currency

	flag.StringVar(&cfg.APIAddress, "a", "http://localhost:8080", "base URL of the booking API")
	flag.StringVar(&cfg.RunAddress, "r", "localhost:8080", "address and port for the stub server")
	flag.StringVar(&cfg.SessionFile, "s", "", "path to the session token file")
	flag.StringVar(&cfg.Currency, "c", "INR", "currency code used at checkout")

	flag.Parse()

	if envAPIAddress != "" {
		cfg.APIAddress = envAPIAddress
	}
	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envSessionFile != "" {
		cfg.SessionFile = envSessionFile
	}
	if envCurrency != "" {
		cfg.Currency = envCurrency
	}

	if cfg.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(home, ".hotelbook", "session.json")
	}

	return cfg, nil
}
