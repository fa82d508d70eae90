// Package sim implements the force simulation used for freeform map layouts.
//
// A [Simulation] holds a node list, an ordered registry of named [Force]
// values and a temperature (alpha) that decays every tick. Each tick cools
// alpha toward its target, lets every force add velocity, then integrates
// velocity into position for every node that is not pinned:
//
//	alpha += (alphaTarget - alpha) * alphaDecay
//	v *= velocityDecay
//	x += v
//
// Forces never move nodes directly, so they compose by summation. The
// standard set is [Link], [ManyBody], [Center], [Collide] and [Orbit].
//
// # Driving
//
// [Simulation.Restart] starts a [TickSource]. [TimerSource] ticks on a
// goroutine roughly every 16 ms. [ManualSource] is driven by the owner, and
// [Simulation.Tick] and [Simulation.Run] step synchronously:
//
//	s := sim.New(nodes, sim.WithTickSource(&sim.ManualSource{}))
//	s.Force("link", sim.NewLink(edges, params.Link))
//	s.Force("charge", sim.NewManyBody(params.ManyBody))
//	s.Run(1000)
//
// # Fails soft
//
// Coincident nodes are separated by a tiny deterministic jiggle. Velocities
// or positions that become NaN or infinite are reset to zero velocity at the
// fallback centre and counted in [Stats.Degenerate]. Nothing panics or
// returns an error.
package sim
