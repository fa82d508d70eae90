package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/codemap/pkg/cache"
	"github.com/matzehuels/codemap/pkg/config"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/observability"
	"github.com/matzehuels/codemap/pkg/positions"
	"github.com/matzehuels/codemap/pkg/route"
	"github.com/matzehuels/codemap/pkg/sim"
	"github.com/matzehuels/codemap/pkg/viewport"
)

// EmptyMessage is the text of the empty push sent for a graph with no nodes.
const EmptyMessage = "No files indexed yet. Run the indexer on this workspace to populate the map."

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Config    *config.Config
	Logger    *log.Logger
	Store     positions.Store
	Publisher Publisher
	// Cache holds packed layouts keyed by graph content.
	Cache cache.Cache
	Keyer cache.Keyer
	// TickSource creates the frame driver for each new simulation.
	TickSource func() sim.TickSource
	// Width and Height size the viewport. Zero uses the server config.
	Width, Height float64
}

// Engine owns the layout state of one map panel: the graph, the running
// simulation, the viewport and the drag subject. All methods are safe for
// concurrent use. Ticks, input and reloads are serialised on one mutex.
type Engine struct {
	id     string
	cfg    *config.Config
	logger *log.Logger
	store  positions.Store
	pub    Publisher
	packer Packer
	source func() sim.TickSource

	mu      sync.Mutex
	g       *graph.Graph
	mode    Mode
	sim     *sim.Simulation
	view    *viewport.Controller
	drag    *sim.Drag
	conns   []route.Connector
	session SessionOverlay
	changed map[string]bool
	closed  bool
	now     func() time.Time
}

// New creates an engine with an empty graph.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	store := opts.Store
	if store == nil {
		store = positions.NullStore{}
	}
	pub := opts.Publisher
	if pub == nil {
		pub = nopPublisher{}
	}
	c := opts.Cache
	if c == nil {
		c = cache.NullCache{}
	}
	src := opts.TickSource
	if src == nil {
		src = func() sim.TickSource { return sim.NewTimerSource() }
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = cfg.Server.Width, cfg.Server.Height
	}

	id := uuid.NewString()
	e := &Engine{
		id:     id,
		cfg:    cfg,
		logger: logger.WithPrefix("engine").With("panel", id[:8]),
		store:  store,
		pub:    pub,
		packer: Packer{Options: cfg.Packing, Cache: c, Keyer: opts.Keyer, TTL: cfg.Cache.TTL()},
		source: src,
		g:      &graph.Graph{},
		mode:   ModePacked,
		view:   viewport.New(w, h, cfg.Viewport),
		now:    time.Now,
	}
	e.view.OnCentered(e.publishCenteredLocked)
	return e
}

// ID returns the panel id.
func (e *Engine) ID() string { return e.id }

// lockedSource runs tick callbacks under the engine lock.
type lockedSource struct {
	mu  *sync.Mutex
	src sim.TickSource
}

func (l lockedSource) Start(interval time.Duration, fn func()) {
	l.src.Start(interval, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		fn()
	})
}

func (l lockedSource) Stop() { l.src.Stop() }

// Update replaces the graph. The previous simulation and drag are stopped,
// positions of surviving node ids carry over and stored pins are applied
// before the layout runs. A graph with no nodes publishes an empty message.
func (e *Engine) Update(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	e.stopLocked()
	e.drag = nil

	g, stats := graph.Build(nodes, edges)
	if stats.Total() > 0 {
		e.logger.Warn("skipped invalid graph input",
			"invalid", stats.InvalidNodes, "duplicate", stats.DuplicateNodes, "dangling", stats.DanglingEdges)
	}
	prev := e.g
	e.g, e.mode, e.conns = g, mode, nil
	if g.Len() == 0 {
		e.view.Track(nil)
		e.pub.Publish(Message{Type: TypeEmpty, Payload: Empty{Message: EmptyMessage}})
		return nil
	}

	carried := g.CarryPositions(prev)
	pins, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Warn("positions unavailable", "err", err)
	}
	seeded := g.SeedPins(pins)
	for _, n := range g.Nodes {
		n.Changed = e.changed[n.ID]
	}
	e.logger.Debug("graph updated", "nodes", g.Len(), "edges", len(g.Edges), "carried", carried, "pinned", seeded, "mode", mode)

	switch mode {
	case ModeForce:
		e.startForceLocked()
	default:
		e.mode = ModePacked
		if _, _, err := e.packer.Pack(ctx, g); err != nil {
			return err
		}
	}

	if prev.Len() == 0 {
		e.view.SetTransform(e.view.Fit(g.Nodes))
	}
	e.view.Track(g.ByKind(graph.KindComponent, graph.KindDirectory))
	e.publishLocked()
	return nil
}

func (e *Engine) startForceLocked() {
	hooks := observability.Layout()
	hooks.OnLayoutStart(context.Background(), string(ModeForce), e.g.Len())
	start := e.now()

	s := NewSimulation(e.g, e.cfg.Simulation,
		sim.WithTickSource(lockedSource{mu: &e.mu, src: e.source()}),
		sim.WithLogger(e.logger))
	s.OnTick(e.publishLocked)
	s.OnEnd(func() {
		st := s.Stats()
		hooks.OnSettled(context.Background(), st.Ticks, st.Degenerate)
		hooks.OnLayoutComplete(context.Background(), string(ModeForce), e.now().Sub(start), nil)
		e.publishLocked()
	})
	e.sim = s
	s.Restart()
}

func (e *Engine) stopLocked() {
	if e.sim != nil {
		e.sim.Stop()
		e.sim = nil
	}
}

// publishLocked derives the view state and connectors from the current
// positions and pushes a frame.
func (e *Engine) publishLocked() {
	if e.closed || e.g.Len() == 0 {
		return
	}
	e.view.Apply(e.g)
	e.conns = route.RouteAll(e.g, e.cfg.Routing)
	e.view.Refresh()
	e.pub.Publish(Message{Type: TypeGraphUpdate, Payload: e.frameLocked()})
}

// publishCenteredLocked runs from the viewport whenever the centred
// container changes: on pans, zooms, updates and ticks.
func (e *Engine) publishCenteredLocked(n *graph.Node, ok bool) {
	if e.closed {
		return
	}
	var c NodeCentered
	if ok {
		c = centeredPayload(n)
	}
	e.pub.Publish(Message{Type: TypeNodeCentered, Payload: c})
}

func centeredPayload(n *graph.Node) NodeCentered {
	return NodeCentered{ID: n.ID, Label: n.Label(), Path: n.Payload.Path, Metrics: n.Payload.Metrics}
}

func (e *Engine) frameLocked() Frame {
	f := Frame{
		Nodes:      e.g.Nodes,
		Edges:      e.g.Edges,
		Connectors: e.conns,
		Transform:  e.view.Transform(),
		Detail:     e.view.Detail().String(),
		Centered:   e.view.CenteredID(),
		Mode:       e.mode,
	}
	if e.sim != nil {
		f.Alpha, f.Running = e.sim.Alpha(), e.sim.Running()
	}
	if f.Nodes == nil {
		f.Nodes = []*graph.Node{}
	}
	if f.Edges == nil {
		f.Edges = []graph.Edge{}
	}
	if f.Connectors == nil {
		f.Connectors = []route.Connector{}
	}
	return f
}

// Inspect calls fn with the current frame under the engine lock. fn must
// not retain the frame or call back into the engine.
func (e *Engine) Inspect(fn func(Frame)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.g.Len() > 0 && e.conns == nil {
		e.view.Apply(e.g)
		e.conns = route.RouteAll(e.g, e.cfg.Routing)
	}
	fn(e.frameLocked())
}

// FrameJSON encodes the current frame.
func (e *Engine) FrameJSON() ([]byte, error) {
	var data []byte
	var err error
	e.Inspect(func(f Frame) { data, err = json.Marshal(f) })
	return data, err
}

// Snapshot returns a deep copy of the current graph as an update.
func (e *Engine) Snapshot() (graph.Update, error) {
	var u graph.Update
	data, err := e.snapshotJSON()
	if err != nil {
		return u, err
	}
	return graph.UnmarshalUpdate(data)
}

func (e *Engine) snapshotJSON() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.MarshalUpdate(e.g.Snapshot())
}

// Mode returns the active layout mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Running reports whether a simulation is ticking.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim != nil && e.sim.Running()
}

// Settle ticks a force layout synchronously until it cools or maxTicks is
// reached, then publishes once. It returns the ticks run.
func (e *Engine) Settle(maxTicks int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sim == nil {
		return 0
	}
	n := e.sim.Run(maxTicks)
	e.sim.Stop()
	e.publishLocked()
	return n
}

// Close stops the simulation and releases the position store. Later calls
// are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.stopLocked()
	e.drag = nil
	e.closed = true
	return e.store.Close()
}
