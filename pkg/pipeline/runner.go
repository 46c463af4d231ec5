package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/blastradius/pkg/discovery"
	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/report"
	"github.com/matzehuels/blastradius/pkg/timeline"
)

// Runner executes the source → discover → analyze pipeline and writes
// records to a sink.
//
// The Runner holds no per-run state besides its run ID; the sink is owned by
// the caller and is not closed by the Runner.
type Runner struct {
	Metadata   MetadataFetcher
	Discoverer Discoverer
	Sink       report.Sink
	Logger     *log.Logger
	RunID      string
}

// NewRunner creates a runner with a fresh run ID.
// If logger is nil, log.Default() is used.
func NewRunner(metadata MetadataFetcher, discoverer Discoverer, sink report.Sink, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Metadata:   metadata,
		Discoverer: discoverer,
		Sink:       sink,
		Logger:     logger,
		RunID:      uuid.NewString(),
	}
}

// SourceResult describes one analyzed source package.
type SourceResult struct {
	Source     Source
	Dependents int
	BySource   map[discovery.Source]int
	Stats      Stats
}

// Stats holds stage timings.
type Stats struct {
	DiscoverTime time.Duration
	AnalyzeTime  time.Duration
}

// RunResult describes a whole run.
type RunResult struct {
	RunID   string
	Sources []SourceResult
	Failed  []SourceError
}

// SourceError is a source package that was skipped.
type SourceError struct {
	Source Source
	Err    error
}

// Run analyzes sources one after another. A source that fails is logged and
// skipped; Run returns an error only on cancellation, on a sink failure, or
// when every source failed.
func (r *Runner) Run(ctx context.Context, sources []Source, opts Options) (*RunResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, brerrors.Wrap(brerrors.ErrCodeInvalidConfig, err, "invalid options")
	}
	result := &RunResult{RunID: r.RunID}

	for _, src := range sources {
		sr, err := r.AnalyzeSource(ctx, src, opts)
		if err != nil {
			if ctx.Err() != nil || brerrors.Is(err, brerrors.ErrCodeOutput) {
				return result, err
			}
			r.Logger.Error("source skipped", "package", src.Name, "version", src.Version, "err", err)
			result.Failed = append(result.Failed, SourceError{Source: src, Err: err})
			continue
		}
		result.Sources = append(result.Sources, *sr)
	}

	if len(sources) > 0 && len(result.Failed) == len(sources) {
		last := result.Failed[len(result.Failed)-1].Err
		code := brerrors.GetCode(last)
		if code == "" {
			code = brerrors.ErrCodeInternal
		}
		return result, brerrors.Wrap(code, last, "all %d source(s) failed", len(sources))
	}
	return result, nil
}

// AnalyzeSource runs the three stages for one source package.
func (r *Runner) AnalyzeSource(ctx context.Context, src Source, opts Options) (*SourceResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, brerrors.Wrap(brerrors.ErrCodeInvalidConfig, err, "invalid options")
	}
	if err := brerrors.ValidatePackageName(src.Name); err != nil {
		return nil, err
	}
	logger := r.Logger.With("package", src.Name, "version", src.Version)

	// Stage 1: Source
	meta, err := r.Metadata.FetchMetadata(ctx, src.Name, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("source metadata: %w", err)
	}
	tl := timeline.Build(meta.Time)
	t := &target{
		Source:      src,
		runID:       r.RunID,
		timeline:    tl,
		publishedAt: meta.Time[src.Version],
		includeDev:  opts.IncludeDev,
		includePeer: opts.IncludePeer,
		refresh:     opts.Refresh,
	}
	if t.publishedAt == "" {
		if e, ok := tl.Lookup(src.Version); ok {
			t.publishedAt = e.PublishedAt.UTC().Format(time.RFC3339Nano)
		} else {
			logger.Warn("compromised version not in registry timeline")
		}
	}
	logger.Info("loaded source timeline", "versions", len(tl))

	// Stage 2: Discover
	discoverStart := time.Now()
	found, err := r.Discoverer.Discover(ctx, src.Name, opts.discovery())
	if err != nil {
		return nil, fmt.Errorf("discover dependents: %w", err)
	}
	t.provenance = found.Provenance
	sr := &SourceResult{
		Source:     src,
		Dependents: found.Len(),
		BySource:   found.CountBySource(),
	}
	sr.Stats.DiscoverTime = time.Since(discoverStart)
	logger.Info("discovered dependents",
		"count", found.Len(),
		"primary", sr.BySource[discovery.SourcePrimary],
		"secondary", sr.BySource[discovery.SourceSecondary],
		"scraped", sr.BySource[discovery.SourceScraped],
		"duration", sr.Stats.DiscoverTime)

	// Stage 3: Analyze
	analyzeStart := time.Now()
	if err := r.analyzeAll(ctx, t, found.Names, opts, logger); err != nil {
		return sr, err
	}
	sr.Stats.AnalyzeTime = time.Since(analyzeStart)
	logger.Info("analyzed dependents", "count", found.Len(), "duration", sr.Stats.AnalyzeTime)
	return sr, nil
}

// analyzeAll writes one record per dependent. The first sink error stops
// scheduling and is returned.
func (r *Runner) analyzeAll(parent context.Context, t *target, names []string, opts Options, logger *log.Logger) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	a := &analyzer{metadata: r.Metadata, logger: logger}
	if opts.Progress != nil {
		opts.Progress(t.Source, 0, len(names))
	}

	err := RunBounded(ctx, names, PoolOptions{
		Concurrency: opts.Concurrency,
		Pause:       opts.TaskPause,
		OnDone: func(done, total int) {
			if opts.ProgressEvery > 0 && (done%opts.ProgressEvery == 0 || done == total) {
				logger.Info("progress", "done", done, "total", total)
			}
			if opts.Progress != nil {
				opts.Progress(t.Source, done, total)
			}
		},
	}, func(ctx context.Context, dependent string) {
		rec := a.analyze(ctx, t, dependent)
		// Records are written even when ctx is winding down, so each
		// analyzed dependent appears in the output exactly once.
		if werr := r.Sink.Write(context.WithoutCancel(ctx), rec); werr != nil {
			cancel(werr)
		}
	})

	if cause := context.Cause(ctx); cause != nil && parent.Err() == nil && !errors.Is(cause, context.Canceled) {
		return brerrors.Wrap(brerrors.ErrCodeOutput, cause, "write record")
	}
	return err
}
