package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/codemap/pkg/graph"
)

// pointsPerInch converts graph units, treated as points, to Graphviz inches.
const pointsPerInch = 72.0

// DOT writes the graph with every node pinned at its laid-out position, so
// neato only routes edges. Containers become clusters of outlined boxes.
// Containment edges are implied by position and omitted.
func DOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph codemap {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"monospace\", fontsize=10, fixedsize=true];\n")
	buf.WriteString("  edge [color=\"#64748b\", arrowsize=0.6];\n\n")

	for _, n := range g.Nodes {
		if !n.View.Visible {
			continue
		}
		sc, sw := stroke(n)
		attrs := fmt.Sprintf("label=%q, pos=\"%s,%s!\", width=%s, height=%s, fillcolor=%q, color=%q, penwidth=%s",
			n.Label(), num(n.X), num(-n.Y), num(n.Width/pointsPerInch), num(n.Height/pointsPerInch),
			css(fill(n)), css(sc), num(sw))
		if n.Kind.IsContainer() {
			attrs += `, labelloc="t", style="rounded,filled", fillcolor="` + css(fill(n)) + `40"`
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.VisibleEdges() {
		if e.Kind == graph.EdgeContains {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [class=%q];\n", e.Source, e.Target, string(e.Kind))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// GraphvizSVG lays out a DOT document with neato and renders it to SVG.
func GraphvizSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

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
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// sized in pixels from the view box.
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
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	loc := svgTagRe.FindIndex(svg)
	out := make([]byte, 0, len(svg))
	out = append(out, svg[:loc[0]]...)
	out = append(out, root...)
	return append(out, svg[loc[1]:]...)
}
