package pack

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/codemap/pkg/graph"
)

// slot is a child position relative to the top-left corner of its box.
type slot struct {
	node          *graph.Node
	dx, dy        float64
	width, height float64
}

// box is a component or directory being packed.
type box struct {
	node     *graph.Node
	order    int
	width    float64
	height   float64
	columns  int
	rows     int
	slots    []slot
	overflow bool

	placed bool
	left   float64
	top    float64
}

func (b *box) rect() graph.Rect {
	return graph.Rect{Left: b.left, Top: b.top, Right: b.left + b.width, Bottom: b.top + b.height}
}

func (b *box) area() float64 { return b.width * b.height }

// Columns returns the number of file columns for a box holding n files.
func Columns(n, maxColumns int) int {
	if n <= 0 {
		return 0
	}
	c := int(math.Ceil(math.Sqrt(float64(n))))
	return min(maxColumns, max(2, c))
}

// LabelWidth returns the box width for a label: display width times the
// character width plus padding, clamped to [lo, hi].
func LabelWidth(label string, o Options, lo, hi float64) float64 {
	w := float64(runewidth.StringWidth(label))*o.CharWidth + o.LabelPadding
	return math.Max(lo, math.Min(hi, w))
}

// size computes the box dimensions and child slots. Files fill columns row
// by row. Externals stack in their own column to the right of the files.
func size(n *graph.Node, children []*graph.Node, order int, o Options) *box {
	var files, externals []*graph.Node
	for _, c := range children {
		switch c.Kind {
		case graph.KindFile:
			files = append(files, c)
		case graph.KindExternal:
			externals = append(externals, c)
		}
	}

	b := &box{node: n, order: order, overflow: n.Overflow}
	b.columns = Columns(len(files), o.MaxColumns)

	var filesW, filesH float64
	if b.columns > 0 {
		b.rows = (len(files) + b.columns - 1) / b.columns
		colW := make([]float64, b.columns)
		for i, f := range files {
			w := LabelWidth(f.Label(), o, o.FileMinWidth, o.FileMaxWidth)
			colW[i%b.columns] = math.Max(colW[i%b.columns], w)
		}
		colX := make([]float64, b.columns)
		x := o.Padding
		for c, w := range colW {
			colX[c] = x
			x += w + o.ColumnGap
		}
		filesW = x - o.ColumnGap - o.Padding
		filesH = float64(b.rows)*o.FileHeight + float64(b.rows-1)*o.RowGap
		for i, f := range files {
			r, c := i/b.columns, i%b.columns
			b.slots = append(b.slots, slot{
				node:   f,
				dx:     colX[c] + colW[c]/2,
				dy:     o.Header + o.Padding + float64(r)*(o.FileHeight+o.RowGap) + o.FileHeight/2,
				width:  colW[c],
				height: o.FileHeight,
			})
		}
	}

	var extW, extH float64
	if len(externals) > 0 {
		for _, e := range externals {
			extW = math.Max(extW, LabelWidth(e.Label(), o, o.FileMinWidth, o.FileMaxWidth))
		}
		extH = float64(len(externals))*o.ExternalHeight + float64(len(externals)-1)*o.RowGap
		x := o.Padding + filesW
		if filesW > 0 {
			x += o.ExternalGap
		}
		for j, e := range externals {
			b.slots = append(b.slots, slot{
				node:   e,
				dx:     x + extW/2,
				dy:     o.Header + o.Padding + float64(j)*(o.ExternalHeight+o.RowGap) + o.ExternalHeight/2,
				width:  extW,
				height: o.ExternalHeight,
			})
		}
	}

	contentW := 2*o.Padding + filesW + extW
	if filesW > 0 && extW > 0 {
		contentW += o.ExternalGap
	}
	contentH := o.Header + 2*o.Padding + math.Max(filesH, extH)
	b.width = math.Max(o.MinWidth, contentW)
	b.height = math.Max(o.MinHeight, contentH)
	return b
}
