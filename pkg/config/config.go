// Package config holds the explicit configuration for a blastradius run.
//
// A [Config] is built once at process start ([Default], then [Load] for an
// optional file, then [Config.ApplyEnv]) and passed by value or pointer into
// every component. No other package reads the environment.
//
// Files ending in .toml are decoded with BurntSushi/toml, files ending in
// .yaml or .yml with gopkg.in/yaml.v3. Durations are written as Go duration
// strings ("30s", "1.5s").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/blastradius/pkg/errors"
)

// Environment variables consulted by [Config.ApplyEnv].
const (
	EnvNPMToken       = "NPM_TOKEN"
	EnvLibrariesIOKey = "LIBRARIES_IO_API_KEY"
	EnvRedisURL       = "BLASTRADIUS_REDIS_URL"
	EnvMongoURI       = "BLASTRADIUS_MONGO_URI"
)

const (
	maxSearchPageSize  = 250
	defaultRegistryURL = "https://registry.npmjs.org"
)

// Config configures every component of a run.
type Config struct {
	Registry  RegistryConfig  `toml:"registry" yaml:"registry"`
	HTTP      HTTPConfig      `toml:"http" yaml:"http"`
	Discovery DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Analysis  AnalysisConfig  `toml:"analysis" yaml:"analysis"`
	Cache     CacheConfig     `toml:"cache" yaml:"cache"`
	Mongo     MongoConfig     `toml:"mongo" yaml:"mongo"`
}

// RegistryConfig holds upstream endpoints and credentials.
type RegistryConfig struct {
	RegistryURL    string `toml:"registry_url" yaml:"registry_url"`         // package metadata documents
	SearchURL      string `toml:"search_url" yaml:"search_url"`             // primary search index
	LibrariesIOURL string `toml:"libraries_io_url" yaml:"libraries_io_url"` // secondary dependents API
	WebsiteURL     string `toml:"website_url" yaml:"website_url"`           // browse pages for scraping
	Token          string `toml:"token" yaml:"token"`                       // bearer credential for RegistryURL only
	LibrariesIOKey string `toml:"libraries_io_key" yaml:"libraries_io_key"`
}

// HTTPConfig tunes the resilient fetch client.
type HTTPConfig struct {
	Retries          int           `toml:"retries" yaml:"retries"`
	Timeout          time.Duration `toml:"timeout" yaml:"timeout"`
	BackoffUnit      time.Duration `toml:"backoff_unit" yaml:"backoff_unit"`
	MaxRateLimitWait time.Duration `toml:"max_rate_limit_wait" yaml:"max_rate_limit_wait"`
	UserAgent        string        `toml:"user_agent" yaml:"user_agent"`
}

// DiscoveryConfig tunes the dependent discovery cascade.
type DiscoveryConfig struct {
	MaxDependents       int           `toml:"max_dependents" yaml:"max_dependents"` // 0 means unlimited
	IncludeDev          bool          `toml:"include_dev" yaml:"include_dev"`
	IncludePeer         bool          `toml:"include_peer" yaml:"include_peer"`
	DisableScrape       bool          `toml:"disable_scrape" yaml:"disable_scrape"`
	SearchPageSize      int           `toml:"search_page_size" yaml:"search_page_size"`
	SearchPause         time.Duration `toml:"search_pause" yaml:"search_pause"`
	LibrariesIOPageSize int           `toml:"libraries_io_page_size" yaml:"libraries_io_page_size"`
	LibrariesIOPause    time.Duration `toml:"libraries_io_pause" yaml:"libraries_io_pause"`
	ScrapeOffsetStep    int           `toml:"scrape_offset_step" yaml:"scrape_offset_step"`
	ScrapePause         time.Duration `toml:"scrape_pause" yaml:"scrape_pause"`
}

// AnalysisConfig tunes the per-dependent phase.
type AnalysisConfig struct {
	Concurrency   int           `toml:"concurrency" yaml:"concurrency"`
	ProgressEvery int           `toml:"progress_every" yaml:"progress_every"`
	TaskPause     time.Duration `toml:"task_pause" yaml:"task_pause"`
}

// CacheConfig enables the registry response cache. A zero TTL disables it.
type CacheConfig struct {
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
	Dir      string        `toml:"dir" yaml:"dir"`
	RedisURL string        `toml:"redis_url" yaml:"redis_url"`
}

// MongoConfig enables the optional MongoDB result sink when URI is set.
type MongoConfig struct {
	URI        string `toml:"uri" yaml:"uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Registry: RegistryConfig{
			RegistryURL:    defaultRegistryURL,
			SearchURL:      defaultRegistryURL + "/-/v1/search",
			LibrariesIOURL: "https://libraries.io/api",
			WebsiteURL:     "https://www.npmjs.com",
		},
		HTTP: HTTPConfig{
			Retries:          3,
			Timeout:          30 * time.Second,
			BackoffUnit:      time.Second,
			MaxRateLimitWait: 60 * time.Second,
		},
		Discovery: DiscoveryConfig{
			SearchPageSize:      maxSearchPageSize,
			SearchPause:         300 * time.Millisecond,
			LibrariesIOPageSize: 100,
			LibrariesIOPause:    300 * time.Millisecond,
			ScrapeOffsetStep:    36,
			ScrapePause:         1500 * time.Millisecond,
		},
		Analysis: AnalysisConfig{
			Concurrency:   8,
			ProgressEvery: 25,
			TaskPause:     100 * time.Millisecond,
		},
		Mongo: MongoConfig{
			Database:   "blastradius",
			Collection: "records",
		},
	}
}

// Load reads path on top of [Default]. Fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return cfg, nil
}

// ApplyEnv overlays credentials and backend locations from the environment.
// lookup is usually os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Registry.Token, EnvNPMToken)
	set(&c.Registry.LibrariesIOKey, EnvLibrariesIOKey)
	set(&c.Cache.RedisURL, EnvRedisURL)
	set(&c.Mongo.URI, EnvMongoURI)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Registry.RegistryURL == "":
		return errors.New(errors.ErrCodeInvalidConfig, "registry.registry_url is required")
	case c.Registry.SearchURL == "":
		return errors.New(errors.ErrCodeInvalidConfig, "registry.search_url is required")
	case c.HTTP.Retries < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "http.retries must be >= 0, got %d", c.HTTP.Retries)
	case c.HTTP.Timeout <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "http.timeout must be positive, got %s", c.HTTP.Timeout)
	case c.HTTP.BackoffUnit < 0 || c.HTTP.MaxRateLimitWait < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "http backoff durations must not be negative")
	case c.Analysis.Concurrency <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.concurrency must be positive, got %d", c.Analysis.Concurrency)
	case c.Analysis.ProgressEvery < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.progress_every must be >= 0")
	case c.Discovery.MaxDependents < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "discovery.max_dependents must be >= 0")
	case c.Discovery.SearchPageSize <= 0 || c.Discovery.SearchPageSize > maxSearchPageSize:
		return errors.New(errors.ErrCodeInvalidConfig, "discovery.search_page_size must be in 1..%d, got %d", maxSearchPageSize, c.Discovery.SearchPageSize)
	case c.Discovery.LibrariesIOPageSize <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "discovery.libraries_io_page_size must be positive")
	case c.Discovery.ScrapeOffsetStep <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "discovery.scrape_offset_step must be positive")
	case c.Cache.TTL < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// String renders the effective configuration with credentials redacted,
// for debug logging.
func (c Config) String() string {
	redact := func(s string) string {
		if s == "" {
			return "<unset>"
		}
		return "<redacted>"
	}
	return fmt.Sprintf("registry=%s search=%s retries=%d timeout=%s concurrency=%d max_dependents=%d dev=%t peer=%t scrape=%t token=%s libraries_io_key=%s",
		c.Registry.RegistryURL, c.Registry.SearchURL, c.HTTP.Retries, c.HTTP.Timeout,
		c.Analysis.Concurrency, c.Discovery.MaxDependents, c.Discovery.IncludeDev,
		c.Discovery.IncludePeer, !c.Discovery.DisableScrape,
		redact(c.Registry.Token), redact(c.Registry.LibrariesIOKey))
}
