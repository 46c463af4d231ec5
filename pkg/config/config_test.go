package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blastradius/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Analysis.Concurrency)
	assert.Equal(t, 3, cfg.HTTP.Retries)
	assert.Equal(t, 60*time.Second, cfg.HTTP.MaxRateLimitWait)
	assert.Equal(t, 250, cfg.Discovery.SearchPageSize)
	assert.Zero(t, cfg.Discovery.MaxDependents)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "blastradius.toml", `
[http]
retries = 5
timeout = "10s"

[discovery]
max_dependents = 100
include_dev = true

[analysis]
concurrency = 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.HTTP.Retries)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 100, cfg.Discovery.MaxDependents)
	assert.True(t, cfg.Discovery.IncludeDev)
	assert.Equal(t, 4, cfg.Analysis.Concurrency)
	// untouched fields keep defaults
	assert.Equal(t, defaultRegistryURL, cfg.Registry.RegistryURL)
	assert.Equal(t, 36, cfg.Discovery.ScrapeOffsetStep)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "blastradius.yaml", `
registry:
  registry_url: https://registry.example.com
discovery:
  disable_scrape: true
  scrape_pause: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://registry.example.com", cfg.Registry.RegistryURL)
	assert.True(t, cfg.Discovery.DisableScrape)
	assert.Equal(t, 2*time.Second, cfg.Discovery.ScrapePause)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.toml") }},
		{"bad toml", func(t *testing.T) string { return writeFile(t, "bad.toml", "[http\nretries=") }},
		{"bad yaml", func(t *testing.T) string { return writeFile(t, "bad.yml", "http: [") }},
		{"unknown extension", func(t *testing.T) string { return writeFile(t, "cfg.json", "{}") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvNPMToken:       " secret ",
		EnvLibrariesIOKey: "key",
		EnvRedisURL:       "",
	}
	cfg := Default()
	cfg.Cache.RedisURL = "redis://keep"
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "secret", cfg.Registry.Token)
	assert.Equal(t, "key", cfg.Registry.LibrariesIOKey)
	assert.Equal(t, "redis://keep", cfg.Cache.RedisURL, "empty env values must not clobber")
	assert.Empty(t, cfg.Mongo.URI)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no registry", func(c *Config) { c.Registry.RegistryURL = "" }},
		{"negative retries", func(c *Config) { c.HTTP.Retries = -1 }},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Analysis.Concurrency = 0 }},
		{"page too large", func(c *Config) { c.Discovery.SearchPageSize = 251 }},
		{"negative max", func(c *Config) { c.Discovery.MaxDependents = -1 }},
		{"zero scrape step", func(c *Config) { c.Discovery.ScrapeOffsetStep = 0 }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
		})
	}
}

func TestStringRedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Registry.Token = "npm_abcdef"
	s := cfg.String()
	assert.NotContains(t, s, "npm_abcdef")
	assert.Contains(t, s, "token=<redacted>")
	assert.Contains(t, s, "libraries_io_key=<unset>")
}
