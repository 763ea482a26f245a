// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/roach88/salesmap/internal/sdk"
)

// Config holds the SDK loader options and the CLI defaults.
type Config struct {
	APIKey             string   `env:"MAPS_API_KEY"`
	Version            string   `env:"MAPS_VERSION" envDefault:"weekly"`
	Region             string   `env:"MAPS_REGION"`
	Language           string   `env:"MAPS_LANGUAGE"`
	AuthReferrerPolicy string   `env:"MAPS_AUTH_REFERRER_POLICY"`
	Libraries          []string `env:"MAPS_LIBRARIES" envDefault:"maps,marker" envSeparator:","`

	DB            string        `env:"SALESMAP_DB"`
	ZoomStepDelay time.Duration `env:"SALESMAP_ZOOM_STEP_DELAY" envDefault:"30ms"`
	LogFormat     string        `env:"SALESMAP_LOG_FORMAT" envDefault:"text"`
}

// Load reads the optional dotenv files, then parses the environment.
// Variables already set in the environment win over dotenv values.
// Missing files are skipped.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration of an empty environment.
func Default() Config {
	return Config{
		Version:       "weekly",
		Libraries:     []string{"maps", "marker"},
		ZoomStepDelay: 30 * time.Millisecond,
		LogFormat:     "text",
	}
}

// Validate checks the library names and the log format.
func (c Config) Validate() error {
	if _, err := sdk.ParseLibraries(c.Libraries); err != nil {
		return fmt.Errorf("MAPS_LIBRARIES: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("SALESMAP_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	if c.ZoomStepDelay < 0 {
		return fmt.Errorf("SALESMAP_ZOOM_STEP_DELAY: negative duration %s", c.ZoomStepDelay)
	}
	return nil
}

// SDK returns the loader options.
func (c Config) SDK() sdk.Config {
	return sdk.Config{
		APIKey:             c.APIKey,
		Version:            c.Version,
		Region:             c.Region,
		Language:           c.Language,
		AuthReferrerPolicy: c.AuthReferrerPolicy,
	}
}

// LibraryNames returns the configured libraries. Validate has already
// checked them.
func (c Config) LibraryNames() []sdk.Library {
	libs, _ := sdk.ParseLibraries(c.Libraries)
	return libs
}
