package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Flash struct {
		RedisURL   string `toml:"redis_url"`
		CookieName string `toml:"cookie_name"`
		TTLSeconds int    `toml:"ttl_seconds"`
	} `toml:"flash"`

	GSheet struct {
		Enabled         bool   `toml:"enabled"`
		CredentialsPath string `toml:"credentials_path"`
		SpreadsheetID   string `toml:"spreadsheet_id"`
		SheetName       string `toml:"sheet_name"`
		EveryMinutes    int    `toml:"every_minutes"`
	} `toml:"gsheet"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :8080")
	}

	if config.Flash.CookieName == "" {
		config.Flash.CookieName = "semla_flash"
	}
	if config.Flash.TTLSeconds <= 0 {
		config.Flash.TTLSeconds = 300
	}

	logger.Debug.Printf("Loaded flash config: %+v", config.Flash)

	return &config, nil
}
