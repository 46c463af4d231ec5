// Package cli implements the blastradius command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blastradius/pkg/buildinfo"
	"github.com/matzehuels/blastradius/pkg/cache"
	"github.com/matzehuels/blastradius/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "blastradius"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Stdout receives record output and command results; Stderr receives
	// logs, progress and summaries.
	Stdout io.Writer
	Stderr io.Writer

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		Stdout:    os.Stdout,
		Stderr:    w,
		LookupEnv: os.LookupEnv,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Blastradius estimates which npm packages pulled in a compromised release",
		Long: `Blastradius takes compromised npm package versions, discovers the packages
that depend on them, and reports for each dependent whether its declared range
would have resolved to the compromised version when it was published and
whether it would today.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Cache Factory
// =============================================================================

// openCache returns the response cache selected by cfg. A zero TTL disables
// caching.
func (c *CLI) openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.TTL <= 0 {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisURL != "" {
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(c.LookupEnv); err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/blastradius/).
func cacheDir(lookup func(string) (string, bool)) (string, error) {
	if cacheHome, ok := lookup("XDG_CACHE_HOME"); ok && cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
