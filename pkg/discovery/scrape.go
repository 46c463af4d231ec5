package discovery

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/integrations/npm"
)

// BrowseClient is the website surface [ScrapeStrategy] needs.
type BrowseClient interface {
	BrowseDepended(ctx context.Context, name string, offset int) string
}

// ScrapeStrategy pages through the registry website's "depended on" listing.
type ScrapeStrategy struct {
	Client     BrowseClient
	OffsetStep int
	Pause      time.Duration
	Disabled   bool
	Logger     *log.Logger
}

func (s *ScrapeStrategy) Source() Source { return SourceScraped }

// Enabled reports whether scraping is allowed by configuration.
func (s *ScrapeStrategy) Enabled() bool { return !s.Disabled && s.Client != nil }

// Discover stops at an empty page (the fetch client gave up), a page without
// package links, a page that repeats only names this stage already saw, or
// when the budget of new names is met.
func (s *ScrapeStrategy) Discover(ctx context.Context, target string, _ Options, budget int, known func(string) bool) ([]string, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	step := max(s.OffsetStep, 1)
	pacer := newPacer(s.Pause)
	c := newCollector(budget, known)

	for offset := 0; !c.full(); offset += step {
		if err := pacer.Wait(ctx); err != nil {
			return c.found, err
		}
		html := s.Client.BrowseDepended(ctx, target, offset)
		if html == "" {
			if ctx.Err() != nil {
				return c.found, ctx.Err()
			}
			break
		}
		names := npm.ParseDependedPage(html, target)
		fresh := c.offer(names)
		logger.Debug("scraped page", "package", target, "offset", offset, "links", len(names), "new", fresh)
		if fresh == 0 {
			break
		}
	}
	return c.found, nil
}
