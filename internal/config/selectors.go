package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rpa-news-robot/internal/scraper"
)

// LoadSelectors reads selector overrides from a YAML file. Keys absent from the
// file keep the built-in selectors.
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close selectors file: %v", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// Selectors resolves selectors_file relative to configDir. Without a file the
// built-in selectors are used.
func (c *Config) Selectors(configDir string) (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}

	filePath := c.SelectorsFile
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(configDir, filePath)
	}
	return LoadSelectors(filePath)
}

func validateSelectors(s *scraper.Selectors) error {
	if strings.TrimSpace(s.EntrySelector) == "" {
		return fmt.Errorf("entry selector is required")
	}
	if len(s.HeadlineSelectors) == 0 {
		return fmt.Errorf("headline_selectors is required")
	}
	if len(s.DateSelectors) == 0 {
		return fmt.Errorf("date_selectors is required")
	}
	if s.CategoryOption != "" && !strings.Contains(s.CategoryOption, "%s") {
		return fmt.Errorf("category_option must contain %%s")
	}

	return nil
}
