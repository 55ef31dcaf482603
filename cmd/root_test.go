package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func testEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LISTER_ARTIFACT_BACKEND", "")
	t.Setenv("LISTER_FETCH_TIMEOUT", "")
	return t.TempDir()
}

func TestSettingsCommands(t *testing.T) {
	dir := testEnv(t)

	out, err := runCmd(t, "settings", "set", "--data-dir", dir, "--api-key", "abcdef1234", "--brand", "Clay & Co", "--tone", "luxury")
	if err != nil {
		t.Fatalf("settings set failed: %v", err)
	}
	for _, want := range []string{"****1234", "Clay & Co", "luxury"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "abcdef1234") {
		t.Error("Expected api key to be masked")
	}

	out, err = runCmd(t, "settings", "show", "--data-dir", dir)
	if err != nil {
		t.Fatalf("settings show failed: %v", err)
	}
	if !strings.Contains(out, "Clay & Co") {
		t.Errorf("Expected persisted brand, got:\n%s", out)
	}

	if _, err := runCmd(t, "settings", "set", "--data-dir", dir, "--tone", "sarcastic"); err == nil {
		t.Error("Expected error for invalid tone")
	}

	out, err = runCmd(t, "settings", "reset", "--data-dir", dir)
	if err != nil {
		t.Fatalf("settings reset failed: %v", err)
	}
	if !strings.Contains(out, "(not set)") || !strings.Contains(out, "professional") {
		t.Errorf("Expected default settings, got:\n%s", out)
	}
}

func TestProductCommandsOnEmptyCatalog(t *testing.T) {
	dir := testEnv(t)

	out, err := runCmd(t, "product", "list", "--data-dir", dir)
	if err != nil {
		t.Fatalf("product list failed: %v", err)
	}
	if !strings.Contains(out, "0 products, 0 images") {
		t.Errorf("Expected empty stats, got:\n%s", out)
	}

	exportPath := filepath.Join(dir, "catalog.parquet")
	out, err = runCmd(t, "product", "export", "--data-dir", dir, "--out", exportPath)
	if err != nil {
		t.Fatalf("product export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 0 products") {
		t.Errorf("Unexpected export output:\n%s", out)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Errorf("Expected export file: %v", err)
	}

	if _, err := runCmd(t, "product", "show", "--data-dir", dir, "missing"); err == nil {
		t.Error("Expected error for missing product")
	}
	if _, err := runCmd(t, "product", "primary", "--data-dir", dir, "missing", "x"); err == nil {
		t.Error("Expected error for non-numeric index")
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"edit without image", []string{"edit"}},
		{"listing with unknown platform", []string{"listing", "generate", "p1", "--platform", "walmart"}},
		{"bad log level", []string{"settings", "show", "--log-level", "loud"}},
		{"unknown backend", []string{"settings", "show", "--artifact-backend", "s3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testEnv(t)
			args := append(tt.args, "--data-dir", dir)
			if _, err := runCmd(t, args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"abc", "****"},
		{"AIzaSyExample9876", "****9876"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q): expected %q, got %q", tt.key, tt.want, got)
		}
	}
}
