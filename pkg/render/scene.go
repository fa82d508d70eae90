package render

import (
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/route"
)

// MaxPixels bounds either side of a raster or vector image.
const MaxPixels = 8192

// Scene is a laid-out map ready to draw. Node view state decides what is
// shown, so callers apply the viewport detail level first.
type Scene struct {
	Nodes      []*graph.Node
	Connectors []route.Connector
	Title      string
}

// Options controls image framing.
type Options struct {
	// Scale maps graph units to pixels. Zero means 1.
	Scale float64
	// Padding is the margin around the content in pixels.
	Padding float64
}

// DefaultOptions returns 1:1 scale with a 24 pixel margin.
func DefaultOptions() Options {
	return Options{Scale: 1, Padding: 24}
}

// frame maps graph coordinates onto an image.
type frame struct {
	bounds        graph.Rect
	scale         float64
	pad           float64
	width, height int
}

func newFrame(s Scene, o Options) frame {
	if o.Scale <= 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		o.Scale = 1
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	r, ok := graph.Bounds(visible(s.Nodes))
	if !ok {
		r = graph.Rect{Right: 1, Bottom: 1}
	}
	w, h := r.Width()*o.Scale+2*o.Padding, r.Height()*o.Scale+2*o.Padding
	if m := math.Max(w, h); m > MaxPixels {
		o.Scale *= MaxPixels / m
		w, h = r.Width()*o.Scale+2*o.Padding, r.Height()*o.Scale+2*o.Padding
	}
	return frame{
		bounds: r,
		scale:  o.Scale,
		pad:    o.Padding,
		width:  int(math.Ceil(math.Max(w, 1))),
		height: int(math.Ceil(math.Max(h, 1))),
	}
}

func (f frame) x(v float64) float64 { return (v-f.bounds.Left)*f.scale + f.pad }
func (f frame) y(v float64) float64 { return (v-f.bounds.Top)*f.scale + f.pad }

// box returns the node's rectangle in pixels.
func (f frame) box(n *graph.Node) (x, y, w, h float64) {
	r := n.Rect()
	return f.x(r.Left), f.y(r.Top), r.Width() * f.scale, r.Height() * f.scale
}

func (f frame) pathData(p route.Path) string {
	var b strings.Builder
	for i, pt := range p.Points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(strconv.FormatFloat(f.x(pt.X), 'f', 1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(f.y(pt.Y), 'f', 1, 64))
	}
	return b.String()
}

func visible(nodes []*graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.View.Visible && !math.IsNaN(n.X) && !math.IsNaN(n.Y) {
			out = append(out, n)
		}
	}
	return out
}

// drawOrder returns visible nodes with containers first, shallow before
// deep, so children paint over their parents.
func drawOrder(nodes []*graph.Node) []*graph.Node {
	out := visible(nodes)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind.IsContainer() != b.Kind.IsContainer() {
			return a.Kind.IsContainer()
		}
		return a.Depth < b.Depth
	})
	return out
}

// =============================================================================
// Palette
// =============================================================================

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorStroke    = color.RGBA{0x47, 0x55, 0x69, 0xff}
	colorText      = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	colorHeader    = color.RGBA{0xe2, 0xe8, 0xf0, 0xff}
	colorConnector = color.RGBA{0x64, 0x74, 0x8b, 0xff}
	colorChanged   = color.RGBA{0xf5, 0x9e, 0x0b, 0xff}
	colorSmell     = color.RGBA{0xdc, 0x26, 0x26, 0xff}
)

var kindColors = map[graph.Kind]color.RGBA{
	graph.KindComponent: {0xdb, 0xea, 0xfe, 0xff},
	graph.KindDirectory: {0xe0, 0xf2, 0xfe, 0xff},
	graph.KindFile:      {0xff, 0xff, 0xff, 0xff},
	graph.KindExternal:  {0xf1, 0xf5, 0xf9, 0xff},
}

// fill returns the node's category colour, falling back to its kind.
func fill(n *graph.Node) color.RGBA {
	if c, ok := parseHex(n.Payload.Color); ok {
		return c
	}
	if c, ok := kindColors[n.Kind]; ok {
		return c
	}
	return color.RGBA{0xff, 0xff, 0xff, 0xff}
}

// stroke returns the outline colour and width of a node.
func stroke(n *graph.Node) (color.RGBA, float64) {
	switch {
	case n.Changed:
		return colorChanged, 3
	case n.Payload.Metrics != nil && n.Payload.Metrics.Score >= 0.7:
		return colorSmell, 2
	}
	return colorStroke, 1.2
}

func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, true
}

func css(c color.RGBA) string {
	return "#" + hex2(c.R) + hex2(c.G) + hex2(c.B)
}

func hex2(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

// fitText truncates s to the columns available in a box of the given pixel
// width at the given character width.
func fitText(s string, width, charWidth float64) string {
	cols := int(width / charWidth)
	if cols <= 1 {
		return ""
	}
	return runewidth.Truncate(s, cols, "…")
}
