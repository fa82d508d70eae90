package sim

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/codemap/pkg/graph"
)

// initialAngle is the golden angle used by the phyllotaxis spiral.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Force accumulates velocity deltas on nodes. Forces never write positions,
// so several forces compose by summation.
type Force interface {
	// Initialize is called whenever the force is registered or the node set
	// changes.
	Initialize(nodes []*graph.Node)
	// Apply adds velocity for one tick at the given temperature.
	Apply(nodes []*graph.Node, alpha float64)
}

// Stats counts ticks and absorbed numeric anomalies.
type Stats struct {
	Ticks      int
	Degenerate int
}

type namedForce struct {
	name  string
	force Force
}

// Simulation is an iterative force-directed solver over a node set.
// It is not safe for concurrent use: ticks arriving from a [TimerSource]
// must be serialised with every other mutation by the owner.
type Simulation struct {
	nodes  []*graph.Node
	forces []namedForce

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64
	initialRadius float64
	interval      time.Duration
	fallback      graph.Point

	source  TickSource
	running bool
	onTick  []func()
	onEnd   []func()

	stats  Stats
	logger *log.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithParams applies the schedule fields of p.
func WithParams(p Params) Option {
	return func(s *Simulation) {
		if p.AlphaMin > 0 {
			s.alphaMin = p.AlphaMin
		}
		if p.AlphaDecay > 0 {
			s.alphaDecay = p.AlphaDecay
		}
		if p.VelocityDecay > 0 && p.VelocityDecay <= 1 {
			s.velocityDecay = p.VelocityDecay
		}
		if p.InitialRadius > 0 {
			s.initialRadius = p.InitialRadius
		}
		if p.IntervalMS > 0 {
			s.interval = time.Duration(p.IntervalMS) * time.Millisecond
		}
	}
}

// WithTickSource sets the frame driver. The default is a [TimerSource].
func WithTickSource(src TickSource) Option {
	return func(s *Simulation) { s.source = src }
}

// WithCenter sets the point around which unplaced nodes are seeded and to
// which degenerate positions are reset.
func WithCenter(x, y float64) Option {
	return func(s *Simulation) { s.fallback = graph.Point{X: x, Y: y} }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a stopped simulation at alpha 1. Nodes without a position are
// placed on a deterministic phyllotaxis spiral around the centre.
func New(nodes []*graph.Node, opts ...Option) *Simulation {
	d := DefaultParams()
	s := &Simulation{
		alpha:         1,
		alphaMin:      d.AlphaMin,
		alphaDecay:    d.AlphaDecay,
		velocityDecay: d.VelocityDecay,
		initialRadius: d.InitialRadius,
		interval:      time.Duration(d.IntervalMS) * time.Millisecond,
		logger:        log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewTimerSource()
	}
	s.SetNodes(nodes)
	return s
}

// =============================================================================
// Nodes and forces
// =============================================================================

// Nodes returns the simulated nodes.
func (s *Simulation) Nodes() []*graph.Node { return s.nodes }

// SetNodes replaces the node set, seeds unplaced nodes and reinitializes
// every force.
func (s *Simulation) SetNodes(nodes []*graph.Node) {
	s.nodes = nodes
	s.seed()
	for _, f := range s.forces {
		f.force.Initialize(s.nodes)
	}
}

func (s *Simulation) seed() {
	for i, n := range s.nodes {
		if p, ok := n.Pinned(); ok {
			n.X, n.Y = p.X, p.Y
			continue
		}
		if !n.Placed() || !finite(n.X) || !finite(n.Y) {
			r := s.initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = s.fallback.X + r*math.Cos(a)
			n.Y = s.fallback.Y + r*math.Sin(a)
		}
		if !finite(n.VX) || !finite(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

// Force registers f under name, replacing any force with the same name in
// place, and initializes it with the current nodes. A nil f removes the force.
func (s *Simulation) Force(name string, f Force) {
	if f == nil {
		s.RemoveForce(name)
		return
	}
	f.Initialize(s.nodes)
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			return
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
}

// RemoveForce unregisters the named force. It reports whether it existed.
func (s *Simulation) RemoveForce(name string) bool {
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces = append(s.forces[:i], s.forces[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup returns the named force.
func (s *Simulation) Lookup(name string) (Force, bool) {
	for _, f := range s.forces {
		if f.name == name {
			return f.force, true
		}
	}
	return nil, false
}

// ForceNames returns the registered names in application order.
func (s *Simulation) ForceNames() []string {
	names := make([]string, len(s.forces))
	for i, f := range s.forces {
		names[i] = f.name
	}
	return names
}

// =============================================================================
// Temperature
// =============================================================================

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current temperature, clamped to [0, 1].
func (s *Simulation) SetAlpha(v float64) { s.alpha = clamp01(v) }

// AlphaTarget returns the temperature alpha decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the temperature alpha decays toward, clamped to [0, 1].
func (s *Simulation) SetAlphaTarget(v float64) { s.alphaTarget = clamp01(v) }

// AlphaMin returns the temperature below which a running simulation ends.
func (s *Simulation) AlphaMin() float64 { return s.alphaMin }

// Stats returns the tick and anomaly counters.
func (s *Simulation) Stats() Stats { return s.stats }

// Running reports whether the tick source is driving the simulation.
func (s *Simulation) Running() bool { return s.running }

// =============================================================================
// Loop
// =============================================================================

// OnTick registers a callback invoked after every driven tick.
func (s *Simulation) OnTick(fn func()) { s.onTick = append(s.onTick, fn) }

// OnEnd registers a callback invoked once when a driven simulation cools
// below AlphaMin.
func (s *Simulation) OnEnd(fn func()) { s.onEnd = append(s.onEnd, fn) }

// Restart resets alpha to 1 and starts the tick source.
func (s *Simulation) Restart() {
	s.alpha = 1
	s.start()
}

// Reheat sets alpha to a moderate value with a zero target and starts the
// tick source, letting the layout resettle and cool again.
func (s *Simulation) Reheat(alpha float64) {
	s.alpha = clamp01(alpha)
	s.alphaTarget = 0
	s.start()
}

func (s *Simulation) start() {
	s.running = true
	s.source.Start(s.interval, s.frame)
}

// Stop halts the tick source. It is safe to call repeatedly.
func (s *Simulation) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.source.Stop()
}

func (s *Simulation) frame() {
	if !s.running {
		return
	}
	s.Tick()
	for _, fn := range s.onTick {
		fn()
	}
	if s.alpha < s.alphaMin {
		s.Stop()
		s.logger.Debug("simulation settled", "ticks", s.stats.Ticks, "degenerate", s.stats.Degenerate)
		for _, fn := range s.onEnd {
			fn()
		}
	}
}

// Run ticks synchronously until alpha drops below AlphaMin or maxTicks is
// reached, without invoking callbacks. It returns the number of ticks run.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for n < maxTicks && s.alpha >= s.alphaMin {
		s.Tick()
		n++
	}
	return n
}

// Tick advances the simulation by one step: cool, apply every force in
// registration order, then integrate velocity into position for free nodes.
// Pinned nodes are held at their fixed position.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	for _, f := range s.forces {
		f.force.Apply(s.nodes, s.alpha)
	}
	for _, n := range s.nodes {
		if p, ok := n.Pinned(); ok {
			n.X, n.Y = p.X, p.Y
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= s.velocityDecay
		n.VY *= s.velocityDecay
		if !finite(n.VX) || !finite(n.VY) {
			n.VX, n.VY = 0, 0
			s.stats.Degenerate++
		}
		n.X += n.VX
		n.Y += n.VY
		if !finite(n.X) || !finite(n.Y) {
			n.X, n.Y = s.fallback.X, s.fallback.Y
			n.VX, n.VY = 0, 0
			s.stats.Degenerate++
		}
	}
	s.stats.Ticks++
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
