// Package graph provides the node and edge model of a codebase map.
//
// A map is a set of boxes (components, directories, files and external
// dependencies) joined by relationship edges. Every other package reads and
// writes the same [Node] values: the simulation moves them, the packer pins
// them, the router connects them and the viewport decides how they are drawn.
//
// # Core Types
//
//   - [Node]: a positioned box. X and Y locate the centre of the box and Y
//     grows downward. FX and FY pin the node in place.
//   - [Edge]: a directed relationship with a kind and an optional weight.
//   - [Graph]: nodes and edges indexed by ID, built with [Build].
//   - [Update]: the wire form of a complete map, as sent in graph:update.
//
// # Building
//
// [Build] never fails. Edges naming unknown nodes and repeated IDs are
// dropped and counted:
//
//	g, stats := graph.Build(nodes, edges)
//	if stats.DanglingEdges > 0 {
//	    logger.Debug("skipped dangling edges", "count", stats.DanglingEdges)
//	}
//
// # Updates
//
// Each update replaces the previous map. Positions survive only for
// matching IDs:
//
//	next.CarryPositions(prev)
//
// # Serialization
//
//	u, _ := graph.ReadUpdateFile("graph.json")   // File → Update
//	graph.WriteUpdateFile(u, "layout.json")      // Update → File
//	key := graph.Hash(u)                          // structural digest
//
// # Concurrency
//
// Graphs are not safe for concurrent mutation. The engine owns them.
package graph
