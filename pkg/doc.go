// Package pkg provides the core libraries for codemap, a zoomable map of a
// codebase.
//
// # Overview
//
// Codemap draws directories and components as boxes that contain their files,
// places those boxes with a packing layout or a force simulation, and routes
// connectors for the relations between them. A viewport decides how much
// detail is shown: zoomed out, containers collapse into labelled tiles.
//
// # Architecture
//
// The typical data flow through codemap:
//
//	indexer database / graph.json
//	         ↓
//	    [source] package (load nodes, edges and change sessions)
//	         ↓
//	    [graph] package (validate, build parent/child structure)
//	         ↓
//	    [pack] or [sim] package (static packing or force layout)
//	         ↓
//	    [viewport] + [route] packages (detail level, connectors)
//	         ↓
//	    [render] package (SVG, PNG, PDF, DOT) or [server] (websocket panel)
//
// [engine] ties these together for one live panel: it owns the graph,
// serialises updates, drags and overlays, and publishes graph:update messages.
//
// # Quick Start
//
//	u, _ := graph.ReadUpdateFile("graph.json")
//	g, _ := u.Build()
//	pack.Pack(g, pack.DefaultOptions()).Apply(g)
//
//	view := viewport.New(1200, 800, viewport.DefaultOptions())
//	view.SetTransform(view.Fit(g.Nodes))
//	view.Apply(g)
//
//	scene := render.Scene{Nodes: g.Nodes, Connectors: route.RouteAll(g, route.DefaultOptions())}
//	render.SVG(os.Stdout, scene, render.DefaultOptions())
//
// # Main Packages
//
// ## Layout
//
// [graph] - Node, edge and graph:update types, validation and shortest paths.
//
// [pack] - Deterministic grid packing of containers with overflow placement.
//
// [sim] - Force simulation with link, charge, collision and containment
// forces, driven by a pluggable tick source.
//
// [route] - Orthogonal connector routing around boxes.
//
// [viewport] - Pan and zoom transform, semantic detail levels and label fitting.
//
// [render] - Static SVG, PNG, PDF and Graphviz DOT output of a laid-out map.
//
// ## Runtime
//
// [engine] - One map panel: updates, drags, change overlays and publishing.
//
// [server] - HTTP and websocket transport for a panel.
//
// [source] - Indexer database access and change tracking.
//
// [watch] - Debounced file watching for live reloads.
//
// [positions] - Pinned position stores (file, Redis, MongoDB).
//
// [cache] - Layout cache backends (file, memory, null).
//
// ## Support
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors shared by the server and CLI.
//
// [observability] - Logging hooks for engine and server events.
//
// [buildinfo] - Version information set at build time.
//
// # Testing
//
//	go test ./pkg/...                # All tests
//	go test ./pkg/sim/...            # Specific package
//	go test -run Example ./pkg/...   # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/graph
// [pack]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/pack
// [sim]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/sim
// [route]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/route
// [viewport]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/viewport
// [engine]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/engine
// [server]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/server
// [source]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/source
// [watch]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/watch
// [positions]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/positions
// [cache]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/buildinfo
// [render]: https://pkg.go.dev/github.com/matzehuels/codemap/pkg/render
package pkg
