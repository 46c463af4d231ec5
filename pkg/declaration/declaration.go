// Package declaration finds how a dependent package declares a target
// dependency.
//
// [Locate] checks the dependent's "latest" manifest first and then scans its
// other versions from newest to oldest. Within one manifest the sections are
// checked in a fixed order: dependencies, then peerDependencies (when
// enabled), then devDependencies (when enabled).
package declaration

import (
	"cmp"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/blastradius/pkg/integrations/npm"
	"github.com/matzehuels/blastradius/pkg/versions"
)

// Kind is the manifest section a dependency was declared in.
type Kind string

const (
	KindNone    Kind = ""
	KindRegular Kind = "dep"
	KindPeer    Kind = "peer"
	KindDev     Kind = "dev"
)

// Declaration is the outcome of searching one dependent for a target.
// A zero Range with KindNone means no version declares the target.
type Declaration struct {
	Range             string
	DeclaredInVersion string // manifest version the range was read from
	Kind              Kind
	LatestVersion     string // the dependent's "latest" dist-tag, if any
}

// Found reports whether the target was declared anywhere.
func (d Declaration) Found() bool { return d.Kind != KindNone }

// Options selects which optional sections count as a declaration.
type Options struct {
	IncludePeer bool
	IncludeDev  bool
}

// Locate searches meta for a declaration of target.
func Locate(meta *npm.Metadata, target string, opts Options) Declaration {
	if meta == nil {
		return Declaration{}
	}
	decl := Declaration{LatestVersion: meta.Latest()}

	if latest := decl.LatestVersion; latest != "" {
		if m, ok := meta.Versions[latest]; ok {
			if rng, kind, ok := match(m, target, opts); ok {
				decl.Range, decl.Kind, decl.DeclaredInVersion = rng, kind, latest
				return decl
			}
		}
	}

	for _, v := range scanOrder(meta.Versions, decl.LatestVersion) {
		if rng, kind, ok := match(meta.Versions[v], target, opts); ok {
			decl.Range, decl.Kind, decl.DeclaredInVersion = rng, kind, v
			return decl
		}
	}
	return decl
}

func match(m npm.Manifest, target string, opts Options) (string, Kind, bool) {
	if rng, ok := m.Dependencies[target]; ok {
		return rng, KindRegular, true
	}
	if opts.IncludePeer {
		if rng, ok := m.PeerDependencies[target]; ok {
			return rng, KindPeer, true
		}
	}
	if opts.IncludeDev {
		if rng, ok := m.DevDependencies[target]; ok {
			return rng, KindDev, true
		}
	}
	return "", KindNone, false
}

// scanOrder lists version keys other than skip: parseable ones by descending
// precedence (ties by descending key), then unparseable ones ascending.
func scanOrder(manifests npm.Manifests, skip string) []string {
	type key struct {
		raw string
		v   *semver.Version
	}
	var parsed []key
	var unparsed []string
	for raw := range manifests {
		if raw == skip {
			continue
		}
		if v, ok := versions.Coerce(raw); ok {
			parsed = append(parsed, key{raw: raw, v: v})
		} else {
			unparsed = append(unparsed, raw)
		}
	}

	slices.SortFunc(parsed, func(a, b key) int {
		if c := b.v.Compare(a.v); c != 0 {
			return c
		}
		return cmp.Compare(b.raw, a.raw)
	})
	slices.Sort(unparsed)

	out := make([]string, 0, len(parsed)+len(unparsed))
	for _, k := range parsed {
		out = append(out, k.raw)
	}
	return append(out, unparsed...)
}
