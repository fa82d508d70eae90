package pack

import (
	"math"
	"slices"

	"github.com/matzehuels/codemap/pkg/graph"
)

// placer holds the occupied rectangles of one packing run.
type placer struct {
	o        Options
	occupied []graph.Rect
	bounds   graph.Rect
	started  bool
	stats    *Stats
}

func (p *placer) occupy(r graph.Rect) {
	p.occupied = append(p.occupied, r)
	if !p.started {
		p.bounds, p.started = r, true
		return
	}
	p.bounds = p.bounds.Union(r)
}

// collides returns the first occupied rectangle closer than the gap to r.
func (p *placer) collides(r graph.Rect) (graph.Rect, bool) {
	for _, o := range p.occupied {
		if r.Intersects(o.Expand(p.o.Gap)) {
			return o, true
		}
	}
	return graph.Rect{}, false
}

// axis returns sorted candidate coordinates in [lo, hi]: the grid, both
// ends, and the edges of occupied rectangles offset by the gap.
func (p *placer) axis(lo, hi float64, edges func(graph.Rect) (float64, float64)) []float64 {
	var out []float64
	for v := lo; v <= hi; v += p.o.Step {
		out = append(out, v)
	}
	out = append(out, hi)
	for _, r := range p.occupied {
		a, b := edges(r)
		if a >= lo && a <= hi {
			out = append(out, a)
		}
		if b >= lo && b <= hi {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// place searches the grid around the current bounds for the best-scoring
// position of b. The first valid candidate that does not grow the bounds
// wins outright.
func (p *placer) place(b *box) {
	defer func() {
		b.placed = true
		p.occupy(b.rect())
	}()
	if !p.started {
		b.left, b.top = 0, 0
		return
	}

	gap := p.o.Gap
	bounds := p.bounds
	xs := p.axis(bounds.Left, bounds.Right+gap, func(r graph.Rect) (float64, float64) { return r.Left, r.Right + gap })
	ys := p.axis(bounds.Top, bounds.Bottom+gap, func(r graph.Rect) (float64, float64) { return r.Top, r.Bottom + gap })

	var bestX, bestY, bestScore float64
	found := false
	examined := 0

search:
	for _, y := range ys {
		for i := 0; i < len(xs); {
			if examined >= p.o.MaxCandidates {
				break search
			}
			examined++
			x := xs[i]
			cand := graph.Rect{Left: x, Top: y, Right: x + b.width, Bottom: y + b.height}
			if o, hit := p.collides(cand); hit {
				next := o.Right + gap
				for i < len(xs) && xs[i] < next {
					i++
				}
				continue
			}
			grown := bounds.Union(cand)
			if grown == bounds {
				bestX, bestY, found = x, y, true
				break search
			}
			if s := p.score(bounds, grown, cand, b.area()); !found || s < bestScore {
				bestX, bestY, bestScore, found = x, y, s, true
			}
			i++
		}
	}
	p.stats.Candidates += examined

	if !found {
		p.stats.BudgetExhausted++
		bestX, bestY = bounds.Left, bounds.Bottom+gap
	}
	b.left, b.top = bestX, bestY
}

// score rates a candidate; lower is better. Layouts taller than wide are
// penalised heavily, then distance from the target aspect, area growth and
// distance from the top-left corner.
func (p *placer) score(before, after, cand graph.Rect, area float64) float64 {
	w, h := after.Width(), after.Height()
	aspect := w / h
	var s float64
	if aspect < 1 {
		s += 1 + 4*(1/aspect-1)
	}
	s += math.Abs(math.Log(aspect / p.o.TargetAspect))
	s += (w*h - before.Width()*before.Height()) / (before.Width()*before.Height() + area)
	s += 0.25 * ((cand.Top-after.Top)/h + (cand.Left-after.Left)/w)
	return s
}

// shelve lays boxes out in rows starting at (left, top), wrapping at width.
func shelve(boxes []*box, left, top, width, gap float64) {
	x, y, rowH := left, top, 0.0
	for _, b := range boxes {
		if x > left && x+b.width > left+width {
			x = left
			y += rowH + gap
			rowH = 0
		}
		b.left, b.top = x, y
		b.placed = true
		x += b.width + gap
		rowH = math.Max(rowH, b.height)
	}
}
