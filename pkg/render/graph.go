package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/report"
)

// Options configures graph rendering.
type Options struct {
	// IncludeUndeclared adds dependents whose manifests do not declare the
	// source (discovery false positives) as unconnected grey nodes.
	IncludeUndeclared bool
}

const (
	fillImpactedNow     = "#f28b82"
	fillImpactedRelease = "#fbbc04"
	fillDeclared        = "white"
	fillFailed          = "lightgrey"
)

// ToDOT converts records to a Graphviz digraph. Output is deterministic:
// sources and dependents are sorted by name.
func ToDOT(records []report.Record, opts Options) string {
	bySource := map[string][]report.Record{}
	for _, r := range records {
		key := r.SourcePackage + "@" + r.SourceVersion
		bySource[key] = append(bySource[key], r)
	}
	sources := slices.Sorted(maps.Keys(bySource))

	var buf bytes.Buffer
	buf.WriteString("digraph blastradius {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=10];\n")

	declared := map[string]bool{}
	for _, src := range sources {
		fmt.Fprintf(&buf, "\n  %q [fillcolor=%q, penwidth=2];\n", src, "#d93025")

		recs := bySource[src]
		slices.SortFunc(recs, func(a, b report.Record) int { return strings.Compare(a.Dependent, b.Dependent) })
		for _, r := range recs {
			if r.DependencyType == "" && r.Error == "" && !opts.IncludeUndeclared {
				continue
			}
			if !declared[r.Dependent] {
				declared[r.Dependent] = true
				fmt.Fprintf(&buf, "  %q [%s];\n", r.Dependent, strings.Join(nodeAttrs(r), ", "))
			}
			if r.DependencyType != "" {
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", src, r.Dependent, strings.Join(edgeAttrs(r), ", "))
			}
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(r report.Record) []string {
	label := r.Dependent
	if r.MatchedVersion != "" {
		label += "\n" + r.MatchedVersion
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case r.Error != "":
		attrs = append(attrs, `style="rounded,filled,dashed"`, fmt.Sprintf("fillcolor=%q", fillFailed), fmt.Sprintf("tooltip=%q", r.Error))
	case r.LikelyImpactedNow:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fillImpactedNow))
	case r.LikelyImpactedAtRelease:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fillImpactedRelease))
	case r.DependencyType != "":
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fillDeclared))
	default:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fillFailed), "fontcolor=grey40")
	}
	return attrs
}

func edgeAttrs(r report.Record) []string {
	attrs := []string{fmt.Sprintf("label=%q", r.DeclaredRange)}
	if r.DependencyType != "dep" {
		attrs = append(attrs, "style=dashed")
	}
	if r.UsesExactPin {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG lays out a DOT graph and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// WriteFile writes the graph to path. A .dot extension writes DOT text, .svg
// renders it.
func WriteFile(ctx context.Context, path string, records []report.Record, opts Options) error {
	dot := ToDOT(records, opts)
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		data = []byte(dot)
	case ".svg":
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return brerrors.Wrap(brerrors.ErrCodeOutput, err, "render graph")
		}
		data = svg
	default:
		return brerrors.New(brerrors.ErrCodeInvalidInput, "unsupported graph format %q (want .dot or .svg)", filepath.Ext(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return brerrors.Wrap(brerrors.ErrCodeOutput, err, "write graph %s", path)
	}
	return nil
}
