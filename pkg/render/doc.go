// Package render draws the blast radius of analyzed sources as a node-link
// graph.
//
// Each source version becomes a node with an edge to every dependent that
// declares it, labelled with the declared range. Peer and dev edges are
// dashed; exact pins are drawn heavier. Dependents are filled by outcome:
//
//   - red: likely impacted now
//   - amber: likely impacted at release only
//   - white: declared but not impacted
//   - grey, dashed: analysis failed (the error is the node tooltip)
//
// [ToDOT] produces Graphviz DOT text. [RenderSVG] lays it out in-process
// with [github.com/goccy/go-graphviz], so no Graphviz installation is needed.
//
//	dot := render.ToDOT(records, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
package render
