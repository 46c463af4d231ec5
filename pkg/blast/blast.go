// Package blast estimates which version of a compromised package a dependent
// would have installed.
//
// Without lockfiles the best available evidence is the dependent's declared
// range and publish times: [ResolveAtOrBefore] picks the highest target
// version satisfying the range among those published by a cutoff (usually
// the dependent's own publish time), [ResolveNow] does the same over every
// known version. Both are heuristics; a real install may have resolved
// differently.
//
// All functions are pure and report "unknown" as nil or false rather than
// failing.
package blast

import (
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/blastradius/pkg/timeline"
	"github.com/matzehuels/blastradius/pkg/versions"
)

// ResolveAtOrBefore returns the highest version in tl published no later
// than cutoff that satisfies rng, or nil.
func ResolveAtOrBefore(tl timeline.Timeline, rng string, cutoff time.Time) *semver.Version {
	if len(tl) == 0 || cutoff.IsZero() {
		return nil
	}
	return ResolveNow(tl.AtOrBefore(cutoff).Versions(), rng)
}

// ResolveNow returns the highest of candidates satisfying rng, or nil.
func ResolveNow(candidates []*semver.Version, rng string) *semver.Version {
	if len(candidates) == 0 {
		return nil
	}
	c, err := versions.ParseRange(rng)
	if err != nil {
		return nil
	}
	var best *semver.Version
	for _, v := range candidates {
		if v == nil || !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}

// IsImpacted reports whether resolved equals compromised after coercion.
// Either side missing means false.
func IsImpacted(resolved *semver.Version, compromised string) bool {
	if resolved == nil || compromised == "" {
		return false
	}
	return versions.Equal(resolved.String(), compromised)
}

// IsExactPin reports whether rng pins a single version and, when compromised
// is known, whether that version is the compromised one.
func IsExactPin(rng, compromised string) bool {
	pinned, ok := versions.Exact(rng)
	if !ok {
		return false
	}
	if compromised == "" {
		return true
	}
	return versions.Equal(pinned.String(), compromised)
}

// Result bundles the resolver outputs for one dependent.
type Result struct {
	ResolvedAtRelease *semver.Version
	ResolvedNow       *semver.Version
	ImpactedAtRelease bool
	ImpactedNow       bool
	ExactPin          bool
	RangeSatisfies    bool // declared range admits the compromised version
}

// Assess runs every check for a dependent declaring rng, published at
// releasedAt (zero if unknown), against the compromised version.
func Assess(tl timeline.Timeline, rng, compromised string, releasedAt time.Time) Result {
	r := Result{
		ResolvedAtRelease: ResolveAtOrBefore(tl, rng, releasedAt),
		ResolvedNow:       ResolveNow(tl.Versions(), rng),
		ExactPin:          IsExactPin(rng, compromised),
		RangeSatisfies:    versions.Satisfies(rng, compromised),
	}
	r.ImpactedAtRelease = IsImpacted(r.ResolvedAtRelease, compromised)
	r.ImpactedNow = IsImpacted(r.ResolvedNow, compromised)
	return r
}
