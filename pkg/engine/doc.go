// Package engine hosts one interactive map panel.
//
// An [Engine] owns the graph, the running force simulation, the viewport
// controller and the drag subject of a panel. Every mutation, whether a
// timer tick, pointer input or a graph reload, runs under one mutex, so the
// single-owner simulation and viewport never see concurrent access.
//
// Hosts receive state through a [Publisher]:
//
//	graph:update     Frame with nodes, edges, routed connectors and view state
//	overlay:session  SessionOverlay after Engine.Highlight
//	path:result      PathResult after Engine.Path
//	node:click       NodeClick after Engine.OpenRequest
//	node:centered    NodeCentered when the container under the centre changes
//	empty            Empty when a reload carries no nodes
//
// Reloads are complete replacements. Positions of surviving node ids carry
// over, but pins written by the packing layout do not, so a repack places
// grown containers afresh. Container positions saved after a drag are keyed
// by path and re-applied as pins from the [positions.Store].
package engine
