package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/productlister/lister/internal/generative"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LISTER_DATA_DIR", "LISTER_ARTIFACT_BACKEND", "LISTER_QUALITY_MODEL", "LISTER_FAST_MODEL",
		"LISTER_TEXT_MODEL", "GEMINI_API_KEY", "LISTER_ADDR", "LISTER_FETCH_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if want := filepath.Join(home, ".lister"); cfg.DataDir != want {
		t.Errorf("Expected data dir %q, got %q", want, cfg.DataDir)
	}
	if cfg.ArtifactBackend != "fs" {
		t.Errorf("Expected fs backend, got %q", cfg.ArtifactBackend)
	}
	if diff := cmp.Diff(generative.DefaultModels(), cfg.Models); diff != "" {
		t.Errorf("Models mismatch (-want +got):\n%s", diff)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected loopback addr, got %q", cfg.Addr)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("Expected 30s fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.ArtifactDir() != filepath.Join(home, ".lister", "products") {
		t.Errorf("Unexpected artifact dir %q", cfg.ArtifactDir())
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTER_DATA_DIR", "/tmp/lister")
	t.Setenv("LISTER_ARTIFACT_BACKEND", "sqlite")
	t.Setenv("LISTER_FAST_MODEL", "gemini-fast")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("LISTER_FETCH_TIMEOUT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DataDir != "/tmp/lister" || cfg.ArtifactBackend != "sqlite" {
		t.Errorf("Expected overrides, got %+v", cfg)
	}
	if cfg.Models.Fast != "gemini-fast" || cfg.Models.Quality != generative.DefaultModels().Quality {
		t.Errorf("Unexpected models %+v", cfg.Models)
	}
	if cfg.GeminiAPIKey != "secret" {
		t.Errorf("Expected api key from env, got %q", cfg.GeminiAPIKey)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.FetchTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "LISTER_ARTIFACT_BACKEND", "s3"},
		{"zero timeout", "LISTER_FETCH_TIMEOUT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LISTER_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
