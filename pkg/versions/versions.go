// Package versions adapts npm version strings and ranges to
// github.com/Masterminds/semver/v3.
//
// Registry data is messy: version keys carry "v" prefixes or are truncated
// ("1.2"), and declared ranges include dist-tags, aliases, workspace
// protocols, git URLs and file paths. [Coerce] turns a version key into a
// comparable [semver.Version]; [ParseRange] turns a declared range into
// [semver.Constraints] that include prereleases, or reports
// [ErrUnresolvable] for specs that do not name registry versions at all.
package versions

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnresolvable is returned by [ParseRange] for dependency specs that do
// not select registry versions (git URLs, file paths, dist-tags other than
// "latest", malformed ranges).
var ErrUnresolvable = errors.New("range does not select registry versions")

var coerceRe = regexp.MustCompile(`(?:^|[^\d])(\d{1,16})(?:\.(\d{1,16}))?(?:\.(\d{1,16}))?(?:$|[^\d])`)

// Coerce parses s as a semantic version. A valid version (after dropping a
// leading "=" or "v") is kept as-is, prerelease included; otherwise the first
// major[.minor[.patch]] run in s is used, so "v1.2" and "release-3" coerce
// to 1.2.0 and 3.0.0.
func Coerce(s string) (*semver.Version, bool) {
	s = clean(s)
	if s == "" {
		return nil, false
	}
	if v, err := semver.StrictNewVersion(s); err == nil {
		return v, true
	}
	m := coerceRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	var parts [3]uint64
	for i := range parts {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return nil, false
		}
		parts[i] = n
	}
	return semver.New(parts[0], parts[1], parts[2], "", ""), true
}

// Equal reports whether a and b are the same version after coercion.
// Unparseable input is never equal to anything.
func Equal(a, b string) bool {
	va, ok := Coerce(a)
	if !ok {
		return false
	}
	vb, ok := Coerce(b)
	if !ok {
		return false
	}
	return va.Equal(vb)
}

// Exact returns the single version a range pins, if it is one. Only a plain
// version (optionally prefixed "=" or "v") counts; "1.2" or "^1.2.3" do not.
func Exact(rng string) (*semver.Version, bool) {
	v, err := semver.StrictNewVersion(clean(rng))
	if err != nil {
		return nil, false
	}
	return v, true
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "="))
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') {
		s = s[1:]
	}
	return s
}

var nonRegistryPrefixes = []string{
	"git+", "git:", "git@", "github:", "gitlab:", "bitbucket:", "gist:",
	"file:", "link:", "portal:", "patch:", "http:", "https:",
}

// NormalizeRange rewrites an npm dependency spec into a constraint string
// Masterminds can parse. "", "latest", "*" and "x" mean any version;
// "npm:alias@range" yields range; a "workspace:" prefix is dropped.
func NormalizeRange(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "latest", "*", "x":
		return "*", nil
	}

	if rest, ok := strings.CutPrefix(s, "workspace:"); ok {
		switch rest {
		case "*", "^", "~", "":
			return "*", nil
		}
		return NormalizeRange(rest)
	}

	if rest, ok := strings.CutPrefix(s, "npm:"); ok {
		if i := strings.LastIndex(rest, "@"); i > 0 {
			return NormalizeRange(rest[i+1:])
		}
		return "*", nil
	}

	lower := strings.ToLower(s)
	for _, p := range nonRegistryPrefixes {
		if strings.HasPrefix(lower, p) {
			return "", fmt.Errorf("%w: %q", ErrUnresolvable, raw)
		}
	}
	if strings.Contains(s, "://") || strings.Contains(s, "/") {
		// URLs and GitHub "user/repo" shorthands.
		return "", fmt.Errorf("%w: %q", ErrUnresolvable, raw)
	}
	return s, nil
}

// ParseRange parses an npm dependency spec into prerelease-inclusive
// constraints.
func ParseRange(raw string) (*semver.Constraints, error) {
	s, err := NormalizeRange(raw)
	if err != nil {
		return nil, err
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnresolvable, raw, err)
	}
	c.IncludePrerelease = true
	return c, nil
}

// Satisfies reports whether version (coerced) is admitted by the npm range.
// Unparseable input on either side yields false.
func Satisfies(rng, version string) bool {
	c, err := ParseRange(rng)
	if err != nil {
		return false
	}
	v, ok := Coerce(version)
	if !ok {
		return false
	}
	return c.Check(v)
}
