package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the yaml file at filePath over the defaults, then applies
// environment overrides (a .env file is loaded first when present).
// An empty filePath skips the file layer.
func LoadConfig(filePath string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		if err := decodeFile(filePath, cfg); err != nil {
			return nil, err
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

func decodeFile(filePath string, cfg *Config) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides search and output options from the environment variables
// the robot has always been configured with.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SEARCH_PHRASE"); ok && v != "" {
		c.Search.Phrase = v
	}
	if v, ok := lookup("NEWS_CATEGORY"); ok {
		c.Search.Categories = v
	}
	if v, ok := lookup("NUM_MONTHS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NUM_MONTHS: %w", err)
		}
		c.Search.MonthsBack = n
	}
	if v, ok := lookup("NUM_FILES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NUM_FILES: %w", err)
		}
		c.Search.MaxRecords = n
	}
	if v, ok := lookup("MAX_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_SIZE: %w", err)
		}
		c.HTTP.MaxImageBytes = n
	}
	if v, ok := lookup("OUTPUT_DIR"); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup("EXCEL_FILENAME"); ok && v != "" {
		c.Output.ExcelFilename = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Observability.LogLevel = v
	}
	return nil
}
