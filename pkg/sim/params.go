package sim

import "github.com/matzehuels/codemap/pkg/graph"

// Params holds the cooling schedule and force constants of a simulation.
// The constants are tuned by eye per node and edge kind. They are defaults,
// not invariants.
type Params struct {
	AlphaMin      float64 `toml:"alpha_min"`
	AlphaDecay    float64 `toml:"alpha_decay"`
	VelocityDecay float64 `toml:"velocity_decay"`
	// ReheatAlpha is the temperature used after a container is dragged.
	ReheatAlpha float64 `toml:"reheat_alpha"`
	// IntervalMS is the tick period of the timer source.
	IntervalMS int `toml:"interval_ms"`
	// InitialRadius scales the phyllotaxis spiral used for unplaced nodes.
	InitialRadius float64 `toml:"initial_radius"`

	Link     LinkParams     `toml:"link"`
	ManyBody ManyBodyParams `toml:"many_body"`
	Center   CenterParams   `toml:"center"`
	Collide  CollideParams  `toml:"collide"`
	Orbit    OrbitParams    `toml:"orbit"`
}

// LinkParams configures the spring force.
type LinkParams struct {
	Distance        map[graph.EdgeKind]float64 `toml:"distance"`
	Strength        map[graph.EdgeKind]float64 `toml:"strength"`
	DefaultDistance float64                    `toml:"default_distance"`
	DefaultStrength float64                    `toml:"default_strength"`
	// MaxStrength caps kind strength times edge weight.
	MaxStrength float64 `toml:"max_strength"`
}

// ManyBodyParams configures pairwise repulsion.
type ManyBodyParams struct {
	Strength        map[graph.Kind]float64 `toml:"strength"`
	DefaultStrength float64                `toml:"default_strength"`
	DistanceMin     float64                `toml:"distance_min"`
	// DistanceMax limits the interaction range. Zero means unlimited.
	DistanceMax float64 `toml:"distance_max"`
	// MaxBodies bounds the number of nodes acting as sources.
	MaxBodies int `toml:"max_bodies"`
}

// CenterParams configures the centroid pull.
type CenterParams struct {
	X        float64 `toml:"x"`
	Y        float64 `toml:"y"`
	Strength float64 `toml:"strength"`
}

// CollideParams configures bounding-circle separation.
type CollideParams struct {
	Radius        map[graph.Kind]float64 `toml:"radius"`
	DefaultRadius float64                `toml:"default_radius"`
	Strength      float64                `toml:"strength"`
	Iterations    int                    `toml:"iterations"`
}

// OrbitParams configures the parent-relative child spring.
type OrbitParams struct {
	// Radius is used for children without an explicit orbit. Zero derives it
	// from the parent and child sizes.
	Radius   float64 `toml:"radius"`
	Strength float64 `toml:"strength"`
	// MaxGain caps the displacement-dependent gain.
	MaxGain float64 `toml:"max_gain"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		AlphaMin:      0.001,
		AlphaDecay:    0.0228,
		VelocityDecay: 0.6,
		ReheatAlpha:   0.3,
		IntervalMS:    16,
		InitialRadius: 30,
		Link: LinkParams{
			Distance: map[graph.EdgeKind]float64{
				graph.EdgeContains:     60,
				graph.EdgeImports:      120,
				graph.EdgeCalls:        100,
				graph.EdgeInherits:     90,
				graph.EdgeDefines:      60,
				graph.EdgeUses:         110,
				graph.EdgeExternalUses: 140,
			},
			Strength: map[graph.EdgeKind]float64{
				graph.EdgeContains:     0.3,
				graph.EdgeImports:      0.1,
				graph.EdgeCalls:        0.08,
				graph.EdgeInherits:     0.08,
				graph.EdgeDefines:      0.1,
				graph.EdgeUses:         0.06,
				graph.EdgeExternalUses: 0.05,
			},
			DefaultDistance: 100,
			DefaultStrength: 0.1,
			MaxStrength:     1,
		},
		ManyBody: ManyBodyParams{
			Strength: map[graph.Kind]float64{
				graph.KindComponent: -900,
				graph.KindDirectory: -600,
				graph.KindFile:      -60,
				graph.KindExternal:  -40,
			},
			DefaultStrength: -30,
			DistanceMin:     1,
			MaxBodies:       3000,
		},
		Center: CenterParams{Strength: 0.05},
		Collide: CollideParams{
			Radius: map[graph.Kind]float64{
				graph.KindComponent: 80,
				graph.KindDirectory: 60,
				graph.KindFile:      22,
				graph.KindExternal:  16,
			},
			DefaultRadius: 20,
			Strength:      0.7,
			Iterations:    3,
		},
		Orbit: OrbitParams{
			Strength: 0.3,
			MaxGain:  0.9,
		},
	}
}

// LinkDistance returns the rest distance for an edge kind.
func (p LinkParams) LinkDistance(k graph.EdgeKind) float64 {
	if d, ok := p.Distance[k]; ok && d > 0 {
		return d
	}
	return p.DefaultDistance
}

// LinkStrength returns the spring strength for an edge, scaled by its weight
// and capped at MaxStrength.
func (p LinkParams) LinkStrength(e graph.Edge) float64 {
	s, ok := p.Strength[e.Kind]
	if !ok {
		s = p.DefaultStrength
	}
	s *= e.EffectiveWeight()
	if p.MaxStrength > 0 && s > p.MaxStrength {
		s = p.MaxStrength
	}
	return s
}

// Charge returns the repulsion strength for a node kind.
func (p ManyBodyParams) Charge(k graph.Kind) float64 {
	if s, ok := p.Strength[k]; ok {
		return s
	}
	return p.DefaultStrength
}

// CollideRadius returns the collision radius for a node kind.
func (p CollideParams) CollideRadius(k graph.Kind) float64 {
	if r, ok := p.Radius[k]; ok && r > 0 {
		return r
	}
	return p.DefaultRadius
}
