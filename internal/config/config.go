// Package config reads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/generative"
)

// Config represents application configuration loaded from environment variables
type Config struct {
	DataDir         string
	ArtifactBackend string
	Models          generative.Models
	GeminiAPIKey    string
	Addr            string
	FetchTimeout    time.Duration
}

// Load reads configuration from environment variables and applies defaults
func Load() (*Config, error) {
	def := generative.DefaultModels()
	cfg := &Config{
		DataDir:         getEnv("LISTER_DATA_DIR", ""),
		ArtifactBackend: getEnv("LISTER_ARTIFACT_BACKEND", artifacts.BackendFilesystem),
		Models: generative.Models{
			Quality: getEnv("LISTER_QUALITY_MODEL", def.Quality),
			Fast:    getEnv("LISTER_FAST_MODEL", def.Fast),
			Text:    getEnv("LISTER_TEXT_MODEL", def.Text),
		},
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Addr:         getEnv("LISTER_ADDR", "127.0.0.1:8080"),
		FetchTimeout: time.Second * time.Duration(getEnvInt("LISTER_FETCH_TIMEOUT", 30)),
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".lister")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that may also be set from flags
func (c *Config) Validate() error {
	switch c.ArtifactBackend {
	case artifacts.BackendFilesystem, artifacts.BackendSQLite:
	default:
		return fmt.Errorf("LISTER_ARTIFACT_BACKEND must be %q or %q, got %q",
			artifacts.BackendFilesystem, artifacts.BackendSQLite, c.ArtifactBackend)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("LISTER_FETCH_TIMEOUT must be positive")
	}
	return nil
}

// CatalogDir is where products.yaml and settings.yaml live
func (c *Config) CatalogDir() string {
	return c.DataDir
}

// ArtifactDir is the root of the artifact store
func (c *Config) ArtifactDir() string {
	return filepath.Join(c.DataDir, "products")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
