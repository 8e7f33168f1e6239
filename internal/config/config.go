// Package config loads the ledger CLI configuration file.
//
// The file is YAML and selects the document store backend plus the engine
// settings. Every field is optional; missing fields keep their defaults.
//
//	backend: github
//	path: ledger.json
//	max_attempts: 3
//	github:
//	  owner: acme
//	  repo: release-ledger
//	  branch: main
//	  token_env: GITHUB_TOKEN
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledger/internal/engine"
)

// Backend names accepted in the backend field.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendGCS    = "gcs"
	BackendGitHub = "github"
)

// Config selects where the ledger document lives and how it is updated.
type Config struct {
	// Backend is one of memory, sqlite, gcs or github.
	Backend string `yaml:"backend"`

	// Path is the document path inside the store.
	Path string `yaml:"path"`

	// MaxAttempts bounds the write attempts per mutation. 1 disables retries.
	MaxAttempts int `yaml:"max_attempts"`

	SQLite SQLiteConfig `yaml:"sqlite"`
	GCS    GCSConfig    `yaml:"gcs"`
	GitHub GitHubConfig `yaml:"github"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Database string `yaml:"database"`
}

// GCSConfig configures the gcs backend.
type GCSConfig struct {
	Bucket string `yaml:"bucket"`
	// CredentialsFile is a service account key; empty uses application default credentials.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// GitHubConfig configures the github backend.
type GitHubConfig struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch,omitempty"`
	// TokenEnv names the environment variable holding the access token.
	// The token itself never lives in the file.
	TokenEnv string `yaml:"token_env"`
}

// Default returns the configuration used when no file is given:
// a local SQLite database in the working directory.
func Default() *Config {
	return &Config{
		Backend:     BackendSQLite,
		Path:        engine.DefaultPath,
		MaxAttempts: engine.DefaultMaxAttempts,
		SQLite:      SQLiteConfig{Database: "ledger.db"},
		GitHub:      GitHubConfig{TokenEnv: "GITHUB_TOKEN"},
	}
}

// Load reads the configuration file at path over the defaults.
// An empty path returns Default().
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}

	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLite.Database == "" {
			return fmt.Errorf("sqlite.database is required for the sqlite backend")
		}
	case BackendGCS:
		if c.GCS.Bucket == "" {
			return fmt.Errorf("gcs.bucket is required for the gcs backend")
		}
	case BackendGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("github.owner and github.repo are required for the github backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want memory, sqlite, gcs or github)", c.Backend)
	}
	return nil
}

// GitHubToken returns the token from the configured environment variable.
func (c *Config) GitHubToken() string {
	if c.GitHub.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.GitHub.TokenEnv)
}
