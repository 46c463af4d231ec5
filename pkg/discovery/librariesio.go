package discovery

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// DependentsClient is the libraries.io surface [LibrariesIOStrategy] needs.
type DependentsClient interface {
	Enabled() bool
	Dependents(ctx context.Context, name string, page, perPage int) ([]string, error)
}

// LibrariesIOStrategy pages through the libraries.io dependents API.
type LibrariesIOStrategy struct {
	Client  DependentsClient
	PerPage int
	Pause   time.Duration
	Logger  *log.Logger
}

func (s *LibrariesIOStrategy) Source() Source { return SourceSecondary }

// Enabled reports whether an API key is configured.
func (s *LibrariesIOStrategy) Enabled() bool { return s.Client != nil && s.Client.Enabled() }

// Discover stops at an empty or short page, or when the budget of new names
// is met. A
// feature-disabled answer ends the stage with [ErrFeatureDisabled] and is not
// retried.
func (s *LibrariesIOStrategy) Discover(ctx context.Context, target string, _ Options, budget int, known func(string) bool) ([]string, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	perPage := max(s.PerPage, 1)
	pacer := newPacer(s.Pause)
	c := newCollector(budget, known)

	for page := 1; !c.full(); page++ {
		if err := pacer.Wait(ctx); err != nil {
			return c.found, err
		}
		names, err := s.Client.Dependents(ctx, target, page, perPage)
		if err != nil {
			return c.found, err
		}
		c.offer(names)
		logger.Debug("libraries.io page", "package", target, "page", page, "names", len(names), "kept", len(c.found))
		if len(names) < perPage {
			break
		}
	}
	return c.found, nil
}
