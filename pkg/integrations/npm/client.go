package npm

import (
	"context"
	"errors"
	"strings"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/httputil"
	"github.com/matzehuels/blastradius/pkg/integrations"
)

// Endpoints holds the base URLs of the three npm surfaces.
type Endpoints struct {
	Registry string // e.g. https://registry.npmjs.org
	Search   string // e.g. https://registry.npmjs.org/-/v1/search
	Website  string // e.g. https://www.npmjs.com
}

// Client talks to the npm registry, search index and website.
type Client struct {
	*integrations.Client
	ep Endpoints
}

// NewClient creates a Client on top of a shared integrations client.
func NewClient(base *integrations.Client, ep Endpoints) *Client {
	ep.Registry = strings.TrimRight(ep.Registry, "/")
	ep.Search = strings.TrimRight(ep.Search, "/")
	ep.Website = strings.TrimRight(ep.Website, "/")
	return &Client{Client: base, ep: ep}
}

// FetchMetadata returns the registry document for name.
// A missing package yields an error with code NOT_FOUND.
func (c *Client) FetchMetadata(ctx context.Context, name string, refresh bool) (*Metadata, error) {
	var meta Metadata
	err := c.Cached(ctx, name, refresh, &meta, func() error {
		return c.GetJSON(ctx, c.ep.Registry+"/"+integrations.EscapeName(name), &meta)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, httputil.ErrNotFound) {
			return nil, brerrors.Wrap(brerrors.ErrCodeNotFound, err, "npm package %s", name)
		}
		return nil, brerrors.Wrap(brerrors.ErrCodeNetwork, err, "fetch metadata for %s", name)
	}
	if meta.Name == "" {
		meta.Name = name
	}
	return &meta, nil
}
