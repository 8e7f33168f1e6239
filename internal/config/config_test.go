package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "ledger.json", cfg.Path)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "github.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendGitHub, cfg.Backend)
	assert.Equal(t, "releases/ledger.json", cfg.Path)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, GitHubConfig{Owner: "acme", Repo: "release-ledger", Branch: "main", TokenEnv: "LEDGER_TOKEN"}, cfg.GitHub)
	// Untouched sections keep their defaults.
	assert.Equal(t, "ledger.db", cfg.SQLite.Database)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("backend: sqlite\nmax_attempt: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "unknown backend", yaml: "backend: s3\n", want: `unknown backend "s3"`},
		{name: "zero attempts", yaml: "max_attempts: 0\n", want: "max_attempts must be at least 1"},
		{name: "empty path", yaml: "path: \"\"\n", want: "path is required"},
		{name: "gcs without bucket", yaml: "backend: gcs\n", want: "gcs.bucket is required"},
		{name: "github without repo", yaml: "backend: github\ngithub:\n  owner: acme\n", want: "github.owner and github.repo are required"},
		{name: "sqlite without database", yaml: "sqlite:\n  database: \"\"\n", want: "sqlite.database is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_MemoryBackend(t *testing.T) {
	cfg, err := Parse([]byte("backend: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
}

func TestGitHubToken(t *testing.T) {
	t.Setenv("LEDGER_TEST_TOKEN", "secret")
	cfg := Default()
	cfg.GitHub.TokenEnv = "LEDGER_TEST_TOKEN"
	assert.Equal(t, "secret", cfg.GitHubToken())

	cfg.GitHub.TokenEnv = ""
	assert.Empty(t, cfg.GitHubToken())
}

func TestLoad_WrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: gcs\ngcs:\n  bucket: releases\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, GCSConfig{Bucket: "releases"}, cfg.GCS)
}
