package source

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemorySource is an in-memory Indexer and ChangeTracker. Fields may be set
// directly before first use; methods are safe for concurrent use afterwards.
type MemorySource struct {
	Files   []File
	Symbols []Symbol
	Edges   []Relation
	Smells  []Smell
	Branch  []BranchChange

	mu       sync.Mutex
	sessions map[string][]Change
}

func (m *MemorySource) ListFiles(context.Context) ([]File, error) {
	return append([]File(nil), m.Files...), nil
}

func (m *MemorySource) ListNodes(context.Context) ([]Symbol, error) {
	return append([]Symbol(nil), m.Symbols...), nil
}

func (m *MemorySource) ListEdges(context.Context) ([]Relation, error) {
	return append([]Relation(nil), m.Edges...), nil
}

func (m *MemorySource) GetNodeByID(_ context.Context, id string) (Symbol, bool, error) {
	for _, s := range m.Symbols {
		if s.ID == id {
			return s, true, nil
		}
	}
	return Symbol{}, false, nil
}

func (m *MemorySource) ListFileSmells(context.Context) ([]Smell, error) {
	return append([]Smell(nil), m.Smells...), nil
}

func (m *MemorySource) CreateSessionFromGitChanges(context.Context) (string, bool, error) {
	changes := sessionChanges(m.Files, m.Branch)
	if len(changes) == 0 {
		return "", false, nil
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string][]Change)
	}
	m.sessions[id] = changes
	return id, true, nil
}

func (m *MemorySource) GetChangesBySession(_ context.Context, id string) ([]Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Change(nil), m.sessions[id]...), nil
}

func (m *MemorySource) GetCurrentBranchChanges(context.Context) ([]BranchChange, error) {
	return append([]BranchChange(nil), m.Branch...), nil
}

var (
	_ Indexer       = (*MemorySource)(nil)
	_ ChangeTracker = (*MemorySource)(nil)
)
