package sim

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/codemap/pkg/graph"
)

// jiggle returns a tiny deterministic offset used to separate coincident
// nodes.
type jiggle struct{ r *rand.Rand }

func newJiggle() jiggle { return jiggle{r: rand.New(rand.NewPCG(0x636f6465, 0x6d6170))} }

func (j jiggle) next() float64 { return (j.r.Float64() - 0.5) * 1e-6 }

// =============================================================================
// Link
// =============================================================================

type link struct {
	source, target *graph.Node
	distance       float64
	strength       float64
	bias           float64
}

// Link pulls the endpoints of each edge toward a kind-dependent rest
// distance. The correction is split between the endpoints by degree, so the
// better connected end moves less.
type Link struct {
	edges  []graph.Edge
	params LinkParams
	links  []link
	jig    jiggle

	// Skipped counts edges whose endpoints are not in the node set.
	Skipped int
}

// NewLink creates a spring force over edges.
func NewLink(edges []graph.Edge, p LinkParams) *Link {
	return &Link{edges: edges, params: p}
}

// Initialize resolves edge endpoints against nodes.
func (f *Link) Initialize(nodes []*graph.Node) {
	f.jig = newJiggle()
	f.links = f.links[:0]
	f.Skipped = 0

	index := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}
	count := make(map[string]int, len(nodes))
	for _, e := range f.edges {
		if index[e.Source] == nil || index[e.Target] == nil || e.Source == e.Target {
			continue
		}
		count[e.Source]++
		count[e.Target]++
	}
	for _, e := range f.edges {
		s, t := index[e.Source], index[e.Target]
		if s == nil || t == nil || s == t {
			f.Skipped++
			continue
		}
		cs, ct := float64(count[e.Source]), float64(count[e.Target])
		f.links = append(f.links, link{
			source:   s,
			target:   t,
			distance: f.params.LinkDistance(e.Kind),
			strength: f.params.LinkStrength(e),
			bias:     cs / (cs + ct),
		})
	}
}

// Apply adds spring velocity for every resolved edge.
func (f *Link) Apply(_ []*graph.Node, alpha float64) {
	for _, l := range f.links {
		s, t := l.source, l.target
		x := t.X + t.VX - s.X - s.VX
		y := t.Y + t.VY - s.Y - s.VY
		if x == 0 {
			x = f.jig.next()
		}
		if y == 0 {
			y = f.jig.next()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.distance) / d * alpha * l.strength
		x *= k
		y *= k
		t.VX -= x * l.bias
		t.VY -= y * l.bias
		s.VX += x * (1 - l.bias)
		s.VY += y * (1 - l.bias)
	}
}

// =============================================================================
// Many-body
// =============================================================================

// ManyBody applies inverse-square repulsion between every pair of unpinned
// nodes. Pinned nodes neither repel nor receive. Only the first MaxBodies
// nodes act as sources; the rest still receive.
type ManyBody struct {
	params   ManyBodyParams
	strength []float64
	sources  int
	jig      jiggle

	// Capped reports whether the node set exceeded MaxBodies.
	Capped bool
}

// NewManyBody creates a repulsion force.
func NewManyBody(p ManyBodyParams) *ManyBody { return &ManyBody{params: p} }

// Initialize records per-node strengths.
func (f *ManyBody) Initialize(nodes []*graph.Node) {
	f.jig = newJiggle()
	f.strength = make([]float64, len(nodes))
	for i, n := range nodes {
		f.strength[i] = f.params.Charge(n.Kind)
	}
	f.sources = len(nodes)
	f.Capped = false
	if f.params.MaxBodies > 0 && f.sources > f.params.MaxBodies {
		f.sources = f.params.MaxBodies
		f.Capped = true
	}
}

// Apply adds repulsion velocity.
func (f *ManyBody) Apply(nodes []*graph.Node, alpha float64) {
	if len(f.strength) != len(nodes) {
		f.Initialize(nodes)
	}
	min2 := f.params.DistanceMin * f.params.DistanceMin
	max2 := f.params.DistanceMax * f.params.DistanceMax
	for i, ni := range nodes {
		if ni.IsPinned() {
			continue
		}
		for j := 0; j < f.sources; j++ {
			if i == j {
				continue
			}
			nj := nodes[j]
			if nj.IsPinned() {
				continue
			}
			x := nj.X - ni.X
			y := nj.Y - ni.Y
			l := x*x + y*y
			if max2 > 0 && l >= max2 {
				continue
			}
			if x == 0 {
				x = f.jig.next()
				l += x * x
			}
			if y == 0 {
				y = f.jig.next()
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := f.strength[j] * alpha / l
			ni.VX += x * w
			ni.VY += y * w
		}
	}
}

// =============================================================================
// Center
// =============================================================================

// Center pulls the centroid of the free nodes toward a target point by
// adding the same velocity to each free node.
type Center struct {
	params CenterParams
}

// NewCenter creates a centering force.
func NewCenter(p CenterParams) *Center { return &Center{params: p} }

// Initialize does nothing.
func (f *Center) Initialize([]*graph.Node) {}

// Apply adds centering velocity.
func (f *Center) Apply(nodes []*graph.Node, alpha float64) {
	var sx, sy float64
	n := 0
	for _, node := range nodes {
		if node.IsPinned() {
			continue
		}
		sx += node.X
		sy += node.Y
		n++
	}
	if n == 0 {
		return
	}
	k := f.params.Strength * alpha
	dx := (f.params.X - sx/float64(n)) * k
	dy := (f.params.Y - sy/float64(n)) * k
	for _, node := range nodes {
		if node.IsPinned() {
			continue
		}
		node.VX += dx
		node.VY += dy
	}
}

// =============================================================================
// Collide
// =============================================================================

// Collide separates nodes whose bounding circles overlap, in proportion to
// the penetration depth. Overlap is measured on positions predicted from
// the current velocity and resolved over several sub-iterations per tick.
type Collide struct {
	params CollideParams
	radius []float64
	jig    jiggle
}

// NewCollide creates a collision force.
func NewCollide(p CollideParams) *Collide { return &Collide{params: p} }

// Initialize records per-node radii.
func (f *Collide) Initialize(nodes []*graph.Node) {
	f.jig = newJiggle()
	f.radius = make([]float64, len(nodes))
	for i, n := range nodes {
		f.radius[i] = f.params.CollideRadius(n.Kind)
	}
}

// Apply adds separation velocity.
func (f *Collide) Apply(nodes []*graph.Node, alpha float64) {
	if len(f.radius) != len(nodes) {
		f.Initialize(nodes)
	}
	iterations := max(f.params.Iterations, 1)
	k := f.params.Strength * alpha
	for range iterations {
		for i := 0; i < len(nodes); i++ {
			a := nodes[i]
			ax, ay := a.X+a.VX, a.Y+a.VY
			ra := f.radius[i]
			for j := i + 1; j < len(nodes); j++ {
				b := nodes[j]
				r := ra + f.radius[j]
				x := ax - (b.X + b.VX)
				if x >= r || x <= -r {
					continue
				}
				y := ay - (b.Y + b.VY)
				l := x*x + y*y
				if l >= r*r {
					continue
				}
				pa, pb := a.IsPinned(), b.IsPinned()
				if pa && pb {
					continue
				}
				if x == 0 {
					x = f.jig.next()
					l += x * x
				}
				if y == 0 {
					y = f.jig.next()
					l += y * y
				}
				d := math.Sqrt(l)
				s := (r - d) / d * k
				x *= s
				y *= s

				rb2 := f.radius[j] * f.radius[j]
				share := rb2 / (ra*ra + rb2)
				switch {
				case pa:
					share = 0
				case pb:
					share = 1
				}
				a.VX += x * share
				a.VY += y * share
				b.VX -= x * (1 - share)
				b.VY -= y * (1 - share)
				ax, ay = a.X+a.VX, a.Y+a.VY
			}
		}
	}
}

// =============================================================================
// Orbit
// =============================================================================

type orbiter struct {
	child, parent *graph.Node
	angle, radius float64
}

// Orbit holds each child at a fixed polar offset from its live parent. The
// gain grows with displacement and is capped at MaxGain, so a far-off child
// is pulled hard without overshooting.
type Orbit struct {
	params   OrbitParams
	orbiters []orbiter
}

// NewOrbit creates an orbit force.
func NewOrbit(p OrbitParams) *Orbit { return &Orbit{params: p} }

// Initialize pairs every node that has a parent in the node set with that
// parent. Children without an explicit orbit get evenly spaced angles.
func (f *Orbit) Initialize(nodes []*graph.Node) {
	f.orbiters = f.orbiters[:0]
	index := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}
	siblings := make(map[string][]*graph.Node)
	var parents []string
	for _, n := range nodes {
		p := index[n.ParentID]
		if p == nil || p == n {
			continue
		}
		if n.Orbit != nil {
			f.orbiters = append(f.orbiters, orbiter{child: n, parent: p, angle: n.Orbit.Angle, radius: n.Orbit.Radius})
			continue
		}
		if _, ok := siblings[p.ID]; !ok {
			parents = append(parents, p.ID)
		}
		siblings[p.ID] = append(siblings[p.ID], n)
	}
	for _, id := range parents {
		p := index[id]
		kids := siblings[id]
		for i, c := range kids {
			r := f.params.Radius
			if r <= 0 {
				r = p.Radius() + c.Radius() + 10
			}
			f.orbiters = append(f.orbiters, orbiter{
				child:  c,
				parent: p,
				angle:  2 * math.Pi * float64(i) / float64(len(kids)),
				radius: r,
			})
		}
	}
}

// Apply adds velocity pulling each child toward its orbit slot.
func (f *Orbit) Apply(_ []*graph.Node, alpha float64) {
	for _, o := range f.orbiters {
		c := o.child
		if c.IsPinned() {
			continue
		}
		tx := o.parent.X + o.radius*math.Cos(o.angle)
		ty := o.parent.Y + o.radius*math.Sin(o.angle)
		dx := tx - (c.X + c.VX)
		dy := ty - (c.Y + c.VY)
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			continue
		}
		gain := f.params.Strength * (1 + dist/o.radius)
		if gain > f.params.MaxGain {
			gain = f.params.MaxGain
		}
		c.VX += dx * gain * alpha
		c.VY += dy * gain * alpha
	}
}

// Slot returns the target position of a child, if it orbits a parent.
func (f *Orbit) Slot(id string) (graph.Point, bool) {
	for _, o := range f.orbiters {
		if o.child.ID == id {
			return graph.Point{
				X: o.parent.X + o.radius*math.Cos(o.angle),
				Y: o.parent.Y + o.radius*math.Sin(o.angle),
			}, true
		}
	}
	return graph.Point{}, false
}
