package discovery

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/integrations/librariesio"
	"github.com/matzehuels/blastradius/pkg/observability"
)

// Source tags which strategy found a dependent.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceScraped   Source = "scraped"
)

// ErrFeatureDisabled is reported by [LibrariesIOStrategy] when the API
// refuses the dependents feature.
var ErrFeatureDisabled = librariesio.ErrFeatureDisabled

// Options controls one discovery run.
type Options struct {
	IncludeDev  bool
	IncludePeer bool
	MaxCount    int // 0 means unlimited
}

// Strategy is one discovery source.
type Strategy interface {
	Source() Source
	// Discover returns up to budget dependent names of target (budget 0 means
	// unlimited). Names for which known reports true were found by an earlier
	// stage: they are left out and do not count toward budget. On failure it
	// returns the names found so far alongside the error.
	Discover(ctx context.Context, target string, opts Options, budget int, known func(string) bool) ([]string, error)
}

// Switchable is implemented by strategies that can be turned off by
// configuration. A disabled strategy is skipped without being called.
type Switchable interface {
	Enabled() bool
}

// Result is the finalized discovery set for one target.
type Result struct {
	Names      []string          // in discovery order
	Provenance map[string]Source // name → first source that reported it
}

// Len returns the number of distinct dependents.
func (r *Result) Len() int { return len(r.Names) }

// CountBySource tallies names per source.
func (r *Result) CountBySource() map[Source]int {
	counts := make(map[Source]int, 3)
	for _, src := range r.Provenance {
		counts[src]++
	}
	return counts
}

// Has reports whether name is already in the result.
func (r *Result) Has(name string) bool {
	_, ok := r.Provenance[name]
	return ok
}

// add records name under src unless already present. It reports whether the
// name was new.
func (r *Result) add(name string, src Source) bool {
	if name == "" {
		return false
	}
	if _, ok := r.Provenance[name]; ok {
		return false
	}
	r.Provenance[name] = src
	r.Names = append(r.Names, name)
	return true
}

// Aggregator runs strategies in order until the budget is met.
type Aggregator struct {
	strategies []Strategy
	logger     *log.Logger
}

// NewAggregator creates an Aggregator over strategies, in cascade order.
func NewAggregator(logger *log.Logger, strategies ...Strategy) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{strategies: strategies, logger: logger}
}

// Discover runs the cascade for target. The error is non-nil only when ctx
// is cancelled; the partial result is returned with it.
func (a *Aggregator) Discover(ctx context.Context, target string, opts Options) (*Result, error) {
	res := &Result{Provenance: map[string]Source{}}
	hooks := observability.Discovery()

	for _, s := range a.strategies {
		src := s.Source()
		if opts.MaxCount > 0 && res.Len() >= opts.MaxCount {
			a.logger.Debug("discovery stage skipped", "package", target, "source", src, "reason", "budget reached")
			hooks.OnStageSkipped(ctx, string(src), "budget")
			continue
		}
		if sw, ok := s.(Switchable); ok && !sw.Enabled() {
			a.logger.Debug("discovery stage skipped", "package", target, "source", src, "reason", "disabled")
			hooks.OnStageSkipped(ctx, string(src), "disabled")
			continue
		}

		budget := 0
		if opts.MaxCount > 0 {
			budget = opts.MaxCount - res.Len()
		}

		start := time.Now()
		names, err := s.Discover(ctx, target, opts, budget, res.Has)
		added := 0
		for _, n := range names {
			if opts.MaxCount > 0 && res.Len() >= opts.MaxCount {
				break
			}
			if res.add(n, src) {
				added++
			}
		}
		hooks.OnStageComplete(ctx, string(src), added, time.Since(start), err)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			a.logger.Warn("discovery stage failed", "package", target, "source", src, "kept", added, "err", err)
			continue
		}
		a.logger.Info("discovery stage complete", "package", target, "source", src, "added", added, "total", res.Len())
	}
	return res, nil
}
