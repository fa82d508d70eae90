package source

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/codemap/pkg/graph"
)

// ID prefixes of derived nodes.
const (
	DirPrefix      = "dir:"
	ExternalPrefix = "ext:"
)

// Index is one consistent read of an Indexer.
type Index struct {
	Files   []File
	Symbols []Symbol
	Edges   []Relation
	Smells  []Smell
}

// Fetch reads every indexer listing concurrently.
func Fetch(ctx context.Context, idx Indexer) (*Index, error) {
	var out Index
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.Files, err = idx.ListFiles(ctx); return })
	g.Go(func() (err error) { out.Symbols, err = idx.ListNodes(ctx); return })
	g.Go(func() (err error) { out.Edges, err = idx.ListEdges(ctx); return })
	g.Go(func() (err error) { out.Smells, err = idx.ListFileSmells(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadStats counts relations [Load] could not map onto files.
type LoadStats struct {
	Files        int
	Directories  int
	Externals    int
	Edges        int
	Unresolved   int // relations whose endpoint symbol has no indexed file
	SelfRelation int // relations inside a single file
}

// Load fetches the index and builds the map graph from it.
func Load(ctx context.Context, idx Indexer, logger *log.Logger) ([]*graph.Node, []graph.Edge, error) {
	ix, err := Fetch(ctx, idx)
	if err != nil {
		return nil, nil, err
	}
	nodes, edges, stats := ix.Build()
	if logger != nil {
		logger.Debug("loaded index",
			"files", stats.Files, "dirs", stats.Directories, "externals", stats.Externals,
			"edges", stats.Edges, "unresolved", stats.Unresolved)
	}
	return nodes, edges, nil
}

type edgeKey struct {
	src, dst string
	kind     graph.EdgeKind
}

// Build converts the index into nodes and edges. The output is sorted and
// deterministic for a given index.
func (ix *Index) Build() ([]*graph.Node, []graph.Edge, LoadStats) {
	var stats LoadStats

	smells := make(map[string]Smell, len(ix.Smells))
	for _, s := range ix.Smells {
		smells[s.FileID] = s
	}

	files := append([]File(nil), ix.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	fileByPath := make(map[string]string, len(files))
	dirs := map[string]*graph.Node{}
	var dirOrder []string
	var fileNodes []*graph.Node
	for _, f := range files {
		if f.ID == "" {
			continue
		}
		dir := path.Dir(f.Path)
		d, ok := dirs[dir]
		if !ok {
			d = graph.NewNode(DirPrefix+dir, graph.KindDirectory)
			d.Depth = depth(dir)
			d.Payload = graph.Payload{Label: dirLabel(dir), Path: dir, Category: string(graph.KindDirectory)}
			dirs[dir] = d
			dirOrder = append(dirOrder, dir)
		}

		n := graph.NewNode(f.ID, graph.KindFile)
		n.ParentID = d.ID
		n.Depth = d.Depth + 1
		n.Payload = graph.Payload{Label: path.Base(f.Path), Path: f.Path, Lang: f.Lang, Category: string(graph.KindFile)}
		if s, ok := smells[f.ID]; ok {
			n.Payload.Metrics = &graph.Metrics{
				Score:             s.Score,
				FunctionCount:     s.FunctionCount,
				AvgFunctionLength: s.AvgFunctionLength,
				MaxFunctionLength: s.MaxFunctionLength,
				MaxNestingDepth:   s.MaxNestingDepth,
				ImportCount:       s.ImportCount,
			}
		}
		fileByPath[f.Path] = f.ID
		fileNodes = append(fileNodes, n)
	}

	// Resolve each symbol to the map node that stands for it.
	owner := make(map[string]string, len(ix.Symbols))
	externals := map[string]*graph.Node{}
	for _, s := range ix.Symbols {
		if s.Kind == SymbolExternal {
			name := s.Name
			if name == "" {
				name = s.ID
			}
			id := ExternalPrefix + name
			if _, ok := externals[id]; !ok {
				n := graph.NewNode(id, graph.KindExternal)
				n.Payload = graph.Payload{Label: name, Category: string(graph.KindExternal)}
				externals[id] = n
			}
			owner[s.ID] = id
			continue
		}
		if fid, ok := fileByPath[s.Path]; ok {
			owner[s.ID] = fid
		}
	}
	// File IDs may appear directly as relation endpoints.
	for _, f := range files {
		if _, ok := owner[f.ID]; !ok {
			owner[f.ID] = f.ID
		}
	}

	weights := map[edgeKey]float64{}
	for _, r := range ix.Edges {
		src, ok1 := owner[r.Src]
		dst, ok2 := owner[r.Dst]
		if !ok1 || !ok2 {
			stats.Unresolved++
			continue
		}
		if src == dst {
			stats.SelfRelation++
			continue
		}
		kind := graph.EdgeKind(r.Kind)
		if strings.HasPrefix(dst, ExternalPrefix) {
			kind = graph.EdgeExternalUses
		}
		w := r.Weight
		if w <= 0 {
			w = 1
		}
		weights[edgeKey{src, dst, kind}] += w
	}

	// Externals live in the directory of the first file that uses them.
	fileParent := make(map[string]*graph.Node, len(fileNodes))
	for _, n := range fileNodes {
		fileParent[n.ID] = dirs[path.Dir(n.Payload.Path)]
	}
	keys := make([]edgeKey, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.src != b.src {
			return a.src < b.src
		}
		if a.dst != b.dst {
			return a.dst < b.dst
		}
		return a.kind < b.kind
	})
	for _, k := range keys {
		ext, ok := externals[k.dst]
		if !ok || ext.ParentID != "" {
			continue
		}
		if d := fileParent[k.src]; d != nil {
			ext.ParentID = d.ID
			ext.Depth = d.Depth + 1
		}
	}

	var nodes []*graph.Node
	var edges []graph.Edge
	for _, dir := range dirOrder {
		nodes = append(nodes, dirs[dir])
	}
	for _, n := range fileNodes {
		nodes = append(nodes, n)
		edges = append(edges, graph.Edge{Source: n.ParentID, Target: n.ID, Kind: graph.EdgeContains})
	}
	extIDs := make([]string, 0, len(externals))
	for id := range externals {
		extIDs = append(extIDs, id)
	}
	sort.Strings(extIDs)
	for _, id := range extIDs {
		n := externals[id]
		nodes = append(nodes, n)
		if n.ParentID != "" {
			edges = append(edges, graph.Edge{Source: n.ParentID, Target: n.ID, Kind: graph.EdgeContains})
		}
	}
	for _, k := range keys {
		edges = append(edges, graph.Edge{Source: k.src, Target: k.dst, Kind: k.kind, Weight: weights[k]})
	}

	stats.Files = len(fileNodes)
	stats.Directories = len(dirOrder)
	stats.Externals = len(externals)
	stats.Edges = len(keys)
	return nodes, edges, stats
}

func depth(dir string) int {
	if dir == "." || dir == "" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}

func dirLabel(dir string) string {
	if dir == "." {
		return "(root)"
	}
	return dir
}
