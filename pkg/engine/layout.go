package engine

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/codemap/pkg/cache"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/observability"
	"github.com/matzehuels/codemap/pkg/pack"
	"github.com/matzehuels/codemap/pkg/sim"
)

// Mode selects the layout algorithm.
type Mode string

// Layout modes.
const (
	ModePacked Mode = "packed"
	ModeForce  Mode = "force"
)

// ParseMode returns the mode named s, defaulting to packed.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePacked, "":
		return ModePacked, true
	case ModeForce:
		return ModeForce, true
	}
	return ModePacked, false
}

// Force names registered by [NewSimulation].
const (
	ForceLink    = "link"
	ForceCharge  = "charge"
	ForceCenter  = "center"
	ForceCollide = "collide"
	ForceOrbit   = "orbit"
)

// NewSimulation creates a simulation over g with the link, charge, center,
// collide and orbit forces, in that order.
func NewSimulation(g *graph.Graph, p sim.Params, opts ...sim.Option) *sim.Simulation {
	opts = append([]sim.Option{sim.WithParams(p), sim.WithCenter(p.Center.X, p.Center.Y)}, opts...)
	s := sim.New(g.Nodes, opts...)
	s.Force(ForceLink, sim.NewLink(g.Edges, p.Link))
	s.Force(ForceCharge, sim.NewManyBody(p.ManyBody))
	s.Force(ForceCenter, sim.NewCenter(p.Center))
	s.Force(ForceCollide, sim.NewCollide(p.Collide))
	s.Force(ForceOrbit, sim.NewOrbit(p.Orbit))
	return s
}

// Packer runs the static packing layout through a cache.
type Packer struct {
	Options pack.Options
	Cache   cache.Cache
	Keyer   cache.Keyer
	TTL     time.Duration
}

// Pack lays out g and applies the result. A cached result for the same
// graph content and options is reused. The boolean reports a cache hit.
func (p Packer) Pack(ctx context.Context, g *graph.Graph) (pack.Result, bool, error) {
	keyer := p.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.LayoutKey(graph.Hash(g.Snapshot()), cache.LayoutKeyOpts{Mode: string(ModePacked), Params: p.Options})

	hooks := observability.Layout()
	start := time.Now()
	hooks.OnLayoutStart(ctx, string(ModePacked), g.Len())

	data, hit, err := cache.Fetch(ctx, p.Cache, key, p.TTL, func() ([]byte, error) {
		return json.Marshal(pack.Pack(g, p.Options))
	})
	if err != nil {
		hooks.OnLayoutComplete(ctx, string(ModePacked), time.Since(start), err)
		return pack.Result{}, false, err
	}
	var res pack.Result
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry is recomputed rather than failing the layout.
		res, hit = pack.Pack(g, p.Options), false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "layout")
	} else {
		observability.Cache().OnCacheMiss(ctx, "layout")
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	res.Apply(g)
	hooks.OnLayoutComplete(ctx, string(ModePacked), time.Since(start), nil)
	return res, hit, nil
}
