package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// MaxAnalysisLimit is the largest number of posts one analysis may request.
const MaxAnalysisLimit = 500

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int `toml:"port"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Bluesky  Bluesky  `toml:"bluesky"`
	Language Language `toml:"language"`
	Analysis Analysis `toml:"analysis"`
	NATS     NATS     `toml:"nats"`

	// CORSOrigins lists the origins allowed to call the HTTP API.
	CORSOrigins []string `toml:"cors_origins"`
}

// Bluesky configures the post search provider. Username and Password are
// optional; without them searches go anonymously to the public AppView.
type Bluesky struct {
	Username string `toml:"username"`
	// Password should be an App Password, not the account password.
	Password string `toml:"password"`
	PDS      string `toml:"pds"`
	AppView  string `toml:"appview"`
}

// Language configures the Google Natural Language sentiment oracle. When
// APIKey is empty, application default credentials are used.
type Language struct {
	APIKey   string `toml:"api_key"`
	Endpoint string `toml:"endpoint"`
}

// Analysis holds pipeline defaults.
type Analysis struct {
	Limit           int `toml:"limit"`
	FetchMultiplier int `toml:"fetch_multiplier"`
	Concurrency     int `toml:"concurrency"`
}

// NATS configures the analysis event publisher. Publishing is disabled when
// URL is empty.
type NATS struct {
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// HasBlueskyCredentials reports whether a Bluesky login is configured.
func (c *Config) HasBlueskyCredentials() bool {
	return c.Bluesky.Username != "" && c.Bluesky.Password != ""
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:      3000,
		LogLevel:  "info",
		LogFormat: "auto",
		Bluesky: Bluesky{
			PDS:     "https://bsky.social",
			AppView: "https://public.api.bsky.app",
		},
		Language: Language{
			Endpoint: "https://language.googleapis.com/v1",
		},
		Analysis: Analysis{
			Limit:           100,
			FetchMultiplier: 2,
			Concurrency:     1,
		},
		NATS: NATS{
			SubjectPrefix: "bluesense",
		},
		CORSOrigins: []string{"*"},
	}
}

// Load reads configuration with sensible defaults. Sources, lowest precedence
// first: built-in defaults, the TOML file named by BLUESENSE_CONFIG, a .env
// file in the working directory, and the process environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return LoadFrom(os.Getenv("BLUESENSE_CONFIG"))
}

// LoadDotEnv copies variables from a .env file in the working directory into
// the environment without overriding ones already set. A missing file is not
// an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadFrom is Load with an explicit TOML file path, which may be empty. It
// does not read .env.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	envString("BSKY_USERNAME", &c.Bluesky.Username)
	envString("BSKY_PASSWORD", &c.Bluesky.Password)
	envString("BSKY_PDS", &c.Bluesky.PDS)
	envString("BSKY_APPVIEW", &c.Bluesky.AppView)
	envString("GOOGLE_LANGUAGE_API_KEY", &c.Language.APIKey)
	envString("GOOGLE_LANGUAGE_ENDPOINT", &c.Language.Endpoint)
	envString("NATS_URL", &c.NATS.URL)
	envString("NATS_SUBJECT_PREFIX", &c.NATS.SubjectPrefix)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"ANALYSIS_LIMIT", &c.Analysis.Limit},
		{"ANALYSIS_FETCH_MULTIPLIER", &c.Analysis.FetchMultiplier},
		{"ANALYSIS_CONCURRENCY", &c.Analysis.Concurrency},
	}
	for _, f := range ints {
		if err := envInt(f.key, f.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if (c.Bluesky.Username == "") != (c.Bluesky.Password == "") {
		return fmt.Errorf("BSKY_USERNAME and BSKY_PASSWORD must be set together")
	}
	if c.Analysis.Limit < 1 || c.Analysis.Limit > MaxAnalysisLimit {
		return fmt.Errorf("analysis limit must be between 1 and %d, got %d", MaxAnalysisLimit, c.Analysis.Limit)
	}
	if c.Analysis.FetchMultiplier < 1 {
		return fmt.Errorf("analysis fetch multiplier must be at least 1, got %d", c.Analysis.FetchMultiplier)
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis concurrency must be at least 1, got %d", c.Analysis.Concurrency)
	}
	if c.NATS.URL != "" && strings.TrimSpace(c.NATS.SubjectPrefix) == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX is required when NATS_URL is set")
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
