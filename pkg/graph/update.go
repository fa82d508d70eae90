package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// =============================================================================
// Update Payload
// =============================================================================

// Update is the complete node and edge set of a map, as pushed to hosts in a
// graph:update message and as stored in snapshot files. Each Update replaces
// the previous one.
type Update struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// Snapshot returns the graph as an Update. Nodes are shared, not copied.
func (g *Graph) Snapshot() Update {
	edges := g.Edges
	if edges == nil {
		edges = []Edge{}
	}
	nodes := g.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	return Update{Nodes: nodes, Edges: edges}
}

// Build indexes the update into a Graph. See [Build].
func (u Update) Build() (*Graph, BuildStats) { return Build(u.Nodes, u.Edges) }

// =============================================================================
// Serialization API
// =============================================================================

// MarshalUpdate converts an update to indented JSON bytes.
func MarshalUpdate(u Update) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteUpdate(u, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalUpdate decodes JSON bytes into an update. Nodes decoded without a
// size get the default size for their kind.
func UnmarshalUpdate(data []byte) (Update, error) {
	return ReadUpdate(bytes.NewReader(data))
}

// WriteUpdate writes an update as JSON to an io.Writer.
func WriteUpdate(u Update, w io.Writer) error {
	if u.Nodes == nil {
		u.Nodes = []*Node{}
	}
	if u.Edges == nil {
		u.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(u); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadUpdate decodes a JSON update from an io.Reader.
func ReadUpdate(r io.Reader) (Update, error) {
	var u Update
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return Update{}, fmt.Errorf("decode: %w", err)
	}
	for _, n := range u.Nodes {
		if n == nil {
			continue
		}
		if n.Width <= 0 || n.Height <= 0 {
			s := DefaultSize(n.Kind)
			n.Width, n.Height = s.Width, s.Height
		}
	}
	return u, nil
}

// WriteUpdateFile writes an update to a JSON file.
func WriteUpdateFile(u Update, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteUpdate(u, f)
}

// ReadUpdateFile reads an update from a JSON file.
func ReadUpdateFile(path string) (Update, error) {
	f, err := os.Open(path)
	if err != nil {
		return Update{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadUpdate(f)
}

// =============================================================================
// Hashing
// =============================================================================

// hashNode is the part of a node that influences packing.
type hashNode struct {
	ID       string      `json:"id"`
	Kind     Kind        `json:"k"`
	Parent   string      `json:"p,omitempty"`
	Label    string      `json:"l,omitempty"`
	Width    float64     `json:"w"`
	Height   float64     `json:"h"`
	Overflow bool        `json:"o,omitempty"`
	Pin      *[2]float64 `json:"pin,omitempty"`
}

// Hash returns a SHA-256 hex digest of the structure of an update: node IDs,
// kinds, parents, labels, sizes, pins and edges. Free positions and view
// state do not contribute, so the digest identifies a static layout input.
func Hash(u Update) string {
	nodes := make([]hashNode, 0, len(u.Nodes))
	for _, n := range u.Nodes {
		if n == nil {
			continue
		}
		h := hashNode{
			ID: n.ID, Kind: n.Kind, Parent: n.ParentID, Label: n.Label(),
			Width: n.Width, Height: n.Height, Overflow: n.Overflow,
		}
		if p, ok := n.Pinned(); ok {
			h.Pin = &[2]float64{p.X, p.Y}
		}
		nodes = append(nodes, h)
	}
	data, _ := json.Marshal(struct {
		Nodes []hashNode `json:"n"`
		Edges []Edge     `json:"e"`
	}{nodes, u.Edges})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
