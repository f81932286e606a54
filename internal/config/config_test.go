package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envKeys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT",
	"BSKY_USERNAME", "BSKY_PASSWORD", "BSKY_PDS", "BSKY_APPVIEW",
	"GOOGLE_LANGUAGE_API_KEY", "GOOGLE_LANGUAGE_ENDPOINT",
	"ANALYSIS_LIMIT", "ANALYSIS_FETCH_MULTIPLIER", "ANALYSIS_CONCURRENCY",
	"CORS_ORIGINS", "NATS_URL", "NATS_SUBJECT_PREFIX", "BLUESENSE_CONFIG",
}

// isolate unsets every recognised variable and moves into an empty
// directory so no stray .env file is picked up. godotenv never overrides a
// variable that exists, even empty, so the keys are removed outright.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "") // restores the original value on cleanup
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 3000 || cfg.Analysis.Limit != 100 || cfg.Analysis.FetchMultiplier != 2 || cfg.Analysis.Concurrency != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Bluesky.AppView != "https://public.api.bsky.app" {
		t.Fatalf("AppView = %q", cfg.Bluesky.AppView)
	}
	if cfg.HasBlueskyCredentials() {
		t.Fatal("credentials reported without username/password")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "bluesense.toml")
	writeFile(t, path, `
port = 8080
log_level = "debug"

[analysis]
limit = 50
concurrency = 4

[nats]
url = "nats://file:4222"
`)
	writeFile(t, filepath.Join(dir, ".env"), "ANALYSIS_LIMIT=60\nLOG_LEVEL=warn\n")

	t.Setenv("BLUESENSE_CONFIG", path)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080 from file", cfg.Port)
	}
	if cfg.Analysis.Limit != 60 {
		t.Fatalf("Limit = %d, want 60 from .env over file", cfg.Analysis.Limit)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("LogLevel = %q, want error from environment", cfg.LogLevel)
	}
	if cfg.Analysis.Concurrency != 4 || cfg.Analysis.FetchMultiplier != 2 {
		t.Fatalf("analysis = %+v", cfg.Analysis)
	}
	if cfg.NATS.URL != "nats://file:4222" || cfg.NATS.SubjectPrefix != "bluesense" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.example|https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
		want string
	}{
		{"bad port", map[string]string{"PORT": "abc"}, "", "invalid PORT"},
		{"port range", map[string]string{"PORT": "70000"}, "", "invalid port"},
		{"limit range", map[string]string{"ANALYSIS_LIMIT": "501"}, "", "between 1 and 500"},
		{"multiplier", map[string]string{"ANALYSIS_FETCH_MULTIPLIER": "0"}, "", "fetch multiplier"},
		{"half credentials", map[string]string{"BSKY_USERNAME": "alice.bsky.social"}, "", "set together"},
		{"unknown file key", nil, "colour = \"blue\"\n", "parse config"},
		{"missing file", map[string]string{"BLUESENSE_CONFIG": "/nonexistent/bluesense.toml"}, "", "open config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			if tt.file != "" {
				path := filepath.Join(dir, "bluesense.toml")
				writeFile(t, path, tt.file)
				t.Setenv("BLUESENSE_CONFIG", path)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
