package npm

import (
	"context"
	"net/url"
	"strconv"
)

// MaxSearchPageSize is the largest page the search index serves.
const MaxSearchPageSize = 250

// SearchPage is one page of search results.
type SearchPage struct {
	Total int
	Names []string
}

type searchResponse struct {
	Total   int            `json:"total"`
	Objects []searchResult `json:"objects"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Package struct {
		Name string `json:"name"`
	} `json:"package"`
}

// Search queries the index for packages whose manifest section kind
// ("dependencies", "devDependencies", "peerDependencies") names target.
// Entries without a name are skipped.
func (c *Client) Search(ctx context.Context, kind, target string, from, size int) (*SearchPage, error) {
	size = min(max(size, 1), MaxSearchPageSize)
	q := url.Values{}
	q.Set("q", kind+":"+target)
	q.Set("from", strconv.Itoa(max(from, 0)))
	q.Set("size", strconv.Itoa(size))

	var resp searchResponse
	if err := c.GetJSON(ctx, c.ep.Search+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	page := &SearchPage{Total: resp.Total}
	for _, r := range append(resp.Objects, resp.Results...) {
		if r.Package.Name != "" {
			page.Names = append(page.Names, r.Package.Name)
		}
	}
	return page, nil
}
