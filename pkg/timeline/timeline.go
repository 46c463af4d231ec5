// Package timeline builds a package's version history from the registry's
// publish-time map.
//
// A [Timeline] is the authoritative "what existed and when" view: entries are
// ordered by publish time (ties by version key), each normalized version
// appears once, and keys that are not versions or carry unparseable
// timestamps are dropped.
package timeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/blastradius/pkg/integrations/npm"
	"github.com/matzehuels/blastradius/pkg/versions"
)

// Entry is one published version.
type Entry struct {
	Version     *semver.Version
	PublishedAt time.Time
}

// Timeline is ascending by PublishedAt with unique normalized versions.
type Timeline []Entry

// Build turns a raw publish-time map (version, "created" or "modified" →
// timestamp) into a Timeline. When several raw keys normalize to the same
// version the earliest published one is kept.
func Build(timeMap map[string]string) Timeline {
	type raw struct {
		key string
		v   *semver.Version
		at  time.Time
	}
	candidates := make([]raw, 0, len(timeMap))
	for key, ts := range timeMap {
		if key == "created" || key == "modified" {
			continue
		}
		v, ok := versions.Coerce(key)
		if !ok {
			continue
		}
		at, ok := npm.ParseTime(ts)
		if !ok {
			continue
		}
		candidates = append(candidates, raw{key: key, v: v, at: at})
	}

	slices.SortFunc(candidates, func(a, b raw) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	seen := make(map[string]bool, len(candidates))
	tl := make(Timeline, 0, len(candidates))
	for _, c := range candidates {
		norm := c.v.String()
		if seen[norm] {
			continue
		}
		seen[norm] = true
		tl = append(tl, Entry{Version: c.v, PublishedAt: c.at})
	}
	return tl
}

// Versions returns every version in publish order.
func (tl Timeline) Versions() []*semver.Version {
	out := make([]*semver.Version, len(tl))
	for i, e := range tl {
		out[i] = e.Version
	}
	return out
}

// AtOrBefore returns the entries published no later than cutoff.
func (tl Timeline) AtOrBefore(cutoff time.Time) Timeline {
	// Sorted ascending, so the survivors are a prefix.
	n, _ := slices.BinarySearchFunc(tl, cutoff, func(e Entry, t time.Time) int {
		if e.PublishedAt.After(t) {
			return 1
		}
		return -1
	})
	return tl[:n]
}

// Lookup finds version (coerced) in the timeline.
func (tl Timeline) Lookup(version string) (Entry, bool) {
	v, ok := versions.Coerce(version)
	if !ok {
		return Entry{}, false
	}
	for _, e := range tl {
		if e.Version.Equal(v) {
			return e, true
		}
	}
	return Entry{}, false
}
