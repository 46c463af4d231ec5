package discovery

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/integrations/npm"
)

// SearchClient is the search-index surface [SearchStrategy] needs.
type SearchClient interface {
	Search(ctx context.Context, kind, target string, from, size int) (*npm.SearchPage, error)
}

// SearchStrategy pages through the registry search index.
type SearchStrategy struct {
	Client   SearchClient
	PageSize int
	Pause    time.Duration
	Logger   *log.Logger
}

func (s *SearchStrategy) Source() Source { return SourcePrimary }

// Discover queries each enabled manifest section in turn. A failing page ends
// only that section's pagination.
func (s *SearchStrategy) Discover(ctx context.Context, target string, opts Options, budget int, known func(string) bool) ([]string, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	size := s.PageSize
	if size <= 0 || size > npm.MaxSearchPageSize {
		size = npm.MaxSearchPageSize
	}

	kinds := []string{"dependencies"}
	if opts.IncludeDev {
		kinds = append(kinds, "devDependencies")
	}
	if opts.IncludePeer {
		kinds = append(kinds, "peerDependencies")
	}

	pacer := newPacer(s.Pause)
	c := newCollector(budget, known)

	for _, kind := range kinds {
		for offset := 0; !c.full(); offset += size {
			if err := pacer.Wait(ctx); err != nil {
				return c.found, err
			}
			page, err := s.Client.Search(ctx, kind, target, offset, size)
			if err != nil {
				if ctx.Err() != nil {
					return c.found, ctx.Err()
				}
				logger.Warn("search page failed", "package", target, "kind", kind, "offset", offset, "err", err)
				break
			}
			if len(page.Names) == 0 {
				break
			}
			c.offer(page.Names)
			logger.Debug("search page", "package", target, "kind", kind, "offset", offset, "names", len(page.Names), "total", page.Total)
			if offset+size >= page.Total {
				break
			}
		}
	}
	return c.found, nil
}
