package npm

import (
	"context"
	"net/url"
	"regexp"
	"strconv"

	"github.com/matzehuels/blastradius/pkg/integrations"
)

// BrowseDepended returns the HTML of the "depended on" listing for name at
// offset, or "" once the fetch client gives up.
func (c *Client) BrowseDepended(ctx context.Context, name string, offset int) string {
	u := c.ep.Website + "/browse/depended/" + integrations.EscapeNamePath(name) + "?offset=" + strconv.Itoa(offset)
	return c.GetText(ctx, u)
}

var packageLinkRe = regexp.MustCompile(`href="/package/([^"?#]+)[^"]*"`)

// Link targets under /package/ that are site navigation, not packages.
var nonPackageLinks = map[string]bool{
	"policies": true,
	"signup":   true,
	"login":    true,
	"about":    true,
	"support":  true,
}

// ParseDependedPage extracts package names from a browse page in order of
// appearance, without duplicates. The page's own subject (target) is
// excluded.
func ParseDependedPage(html, target string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range packageLinkRe.FindAllStringSubmatch(html, -1) {
		name, err := url.PathUnescape(m[1])
		if err != nil || name == "" || name == target || seen[name] || nonPackageLinks[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
