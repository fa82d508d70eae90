package engine

import (
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/route"
	"github.com/matzehuels/codemap/pkg/source"
	"github.com/matzehuels/codemap/pkg/viewport"
)

// Message types pushed to hosts.
const (
	TypeGraphUpdate    = "graph:update"
	TypeOverlaySession = "overlay:session"
	TypeNodeClick      = "node:click"
	TypeNodeCentered   = "node:centered"
	TypePathResult     = "path:result"
	TypeEmpty          = "empty"
)

// Message is one push to the host shell.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher receives engine messages. Publish is called with the engine
// lock held: implementations must encode or copy the payload before
// returning and must not call back into the engine.
type Publisher interface {
	Publish(Message)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Message)

// Publish calls f(m).
func (f PublisherFunc) Publish(m Message) { f(m) }

type nopPublisher struct{}

func (nopPublisher) Publish(Message) {}

// Frame is the graph:update payload: the complete map with routed
// connectors and the panel's view state.
type Frame struct {
	Nodes      []*graph.Node      `json:"nodes"`
	Edges      []graph.Edge       `json:"edges"`
	Connectors []route.Connector  `json:"connectors"`
	Transform  viewport.Transform `json:"transform"`
	Detail     string             `json:"detail"`
	Centered   string             `json:"centered,omitempty"`
	Mode       Mode               `json:"mode"`
	Alpha      float64            `json:"alpha"`
	Running    bool               `json:"running"`
}

// SessionOverlay is the overlay:session payload.
type SessionOverlay struct {
	SessionID string          `json:"sessionId"`
	Changes   []source.Change `json:"changes"`
}

// PathResult is the path:result payload. Path is empty when unreachable.
type PathResult struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Path []string `json:"path"`
}

// NodeClick is the node:click payload.
type NodeClick struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

// NodeCentered is the node:centered payload, sent when the container under
// the screen centre changes. ID is empty when nothing is centred.
type NodeCentered struct {
	ID      string         `json:"id"`
	Label   string         `json:"label,omitempty"`
	Path    string         `json:"path,omitempty"`
	Metrics *graph.Metrics `json:"metrics,omitempty"`
}

// Empty is the empty payload, sent instead of a frame when there is nothing
// to draw.
type Empty struct {
	Message string `json:"message"`
}
