package engine

import (
	"context"

	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/source"
)

// Highlight records the current git changes as a session, marks the
// changed files and publishes the overlay. ok is false when nothing
// changed; the previous overlay is then cleared.
func (e *Engine) Highlight(ctx context.Context, tracker source.ChangeTracker) (SessionOverlay, bool, error) {
	id, ok, err := tracker.CreateSessionFromGitChanges(ctx)
	if err != nil {
		return SessionOverlay{}, false, err
	}
	var changes []source.Change
	if ok {
		if changes, err = tracker.GetChangesBySession(ctx, id); err != nil {
			return SessionOverlay{}, false, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = SessionOverlay{SessionID: id, Changes: changes}
	if e.session.Changes == nil {
		e.session.Changes = []source.Change{}
	}
	e.changed = source.ChangedFiles(changes)
	for _, n := range e.g.Nodes {
		n.Changed = e.changed[n.ID]
	}
	e.pub.Publish(Message{Type: TypeOverlaySession, Payload: e.session})
	e.publishLocked()
	return e.session, ok, nil
}

// Session returns the active change overlay.
func (e *Engine) Session() SessionOverlay {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// BranchChanges lists the uncommitted changes of indexed files without
// recording a session.
func (e *Engine) BranchChanges(ctx context.Context, tracker source.ChangeTracker) ([]source.BranchChange, error) {
	all, err := tracker.GetCurrentBranchChanges(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []source.BranchChange
	for _, bc := range all {
		for _, n := range e.g.Nodes {
			if n.Kind == graph.KindFile && n.Payload.Path == bc.FilePath {
				out = append(out, bc)
				break
			}
		}
	}
	return out, nil
}

// Path finds the shortest directed path between two nodes and publishes
// it. Unknown ids yield an empty path.
func (e *Engine) Path(from, to string) PathResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := PathResult{From: from, To: to, Path: graph.ShortestPath(e.g, from, to)}
	if res.Path == nil {
		res.Path = []string{}
	}
	e.pub.Publish(Message{Type: TypePathResult, Payload: res})
	return res
}

// OpenRequest resolves a clicked node to its source path and publishes a
// node:click message for the host to open it.
func (e *Engine) OpenRequest(id string) (NodeClick, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.g.Node(id)
	if !ok {
		return NodeClick{}, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	click := NodeClick{ID: id}
	if n.Kind == graph.KindFile {
		if err := errors.ValidatePath(n.Payload.Path); err != nil {
			return NodeClick{}, err
		}
		click.Path = n.Payload.Path
	}
	e.pub.Publish(Message{Type: TypeNodeClick, Payload: click})
	return click, nil
}
