// Package pipeline runs the blast-radius analysis for compromised package
// versions.
//
// # Architecture
//
// Each source package goes through three stages:
//
//  1. Source: fetch the package's registry document and build its version
//     timeline
//  2. Discover: collect its direct dependents through the discovery cascade
//  3. Analyze: for every dependent, under a fixed concurrency cap, fetch its
//     metadata, locate its declaration of the source, resolve the blast
//     radius, and write one [report.Record]
//
// Sources are processed one after another; dependents of one source are
// analyzed concurrently. Discovery for a source completes before its
// analysis starts.
//
// # Failure Isolation
//
// A dependent whose analysis fails still produces a record, with the error
// text in its Error field. A source whose metadata cannot be fetched is
// logged and skipped. Only cancellation and sink failures abort a run.
//
// # Usage
//
//	runner := pipeline.NewRunner(npmClient, aggregator, sink, logger)
//	result, err := runner.Run(ctx, []pipeline.Source{{Name: "pkg-a", Version: "1.0.0"}}, pipeline.Options{
//	    Concurrency: 8,
//	})
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/discovery"
	"github.com/matzehuels/blastradius/pkg/integrations/npm"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultConcurrency is the number of dependents analyzed at once.
	DefaultConcurrency = 8

	// DefaultProgressEvery is the completion cadence of progress log lines.
	DefaultProgressEvery = 25

	// DefaultTaskPause follows every analyzed dependent.
	DefaultTaskPause = 100 * time.Millisecond
)

// Source is one compromised package version.
type Source struct {
	Name    string
	Version string
}

func (s Source) String() string { return s.Name + "@" + s.Version }

// MetadataFetcher returns registry documents.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, name string, refresh bool) (*npm.Metadata, error)
}

// Discoverer finds the direct dependents of a package.
type Discoverer interface {
	Discover(ctx context.Context, target string, opts discovery.Options) (*discovery.Result, error)
}

// Options controls one run.
type Options struct {
	IncludeDev    bool
	IncludePeer   bool
	MaxDependents int           // 0 means unlimited
	Concurrency   int           // default DefaultConcurrency
	ProgressEvery int           // 0 disables progress log lines
	TaskPause     time.Duration // pause after each analyzed dependent
	Refresh       bool          // bypass the metadata cache

	// Progress, if set, is called with (0, total) before analysis of a source
	// starts and after every completed dependent.
	Progress func(src Source, done, total int)

	Logger *log.Logger
}

// ValidateAndSetDefaults checks option ranges and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", o.Concurrency)
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxDependents < 0 {
		return fmt.Errorf("max dependents must be >= 0, got %d", o.MaxDependents)
	}
	if o.ProgressEvery < 0 {
		return fmt.Errorf("progress cadence must be >= 0, got %d", o.ProgressEvery)
	}
	if o.TaskPause < 0 {
		o.TaskPause = 0
	}
	return nil
}

func (o Options) discovery() discovery.Options {
	return discovery.Options{
		IncludeDev:  o.IncludeDev,
		IncludePeer: o.IncludePeer,
		MaxCount:    o.MaxDependents,
	}
}
