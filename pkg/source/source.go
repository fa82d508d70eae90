// Package source reads the codebase index and change history that feed the
// map.
//
// Two collaborators sit outside codemap: an indexer that extracts files,
// symbols and symbol relations from a repository, and a change tracker that
// records git changes in sessions. codemap only reads from them, on demand.
// [Indexer] and [ChangeTracker] are the read contracts; [SQLiteSource] reads
// the indexer's SQLite database and [MemorySource] holds data in memory for
// tests and embedding.
//
// [Load] turns an index into map nodes and edges: one directory container
// per source directory, one box per file, one box per external dependency,
// and symbol relations aggregated into weighted file-level edges.
package source

import "context"

// File is an indexed source file.
type File struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Lang string `json:"lang"`
	Size int64  `json:"size"`
}

// Symbol kinds with special meaning to [Load].
const (
	SymbolExternal = "external"
)

// Symbol is an indexed code element: a function, class, module or an
// external dependency.
type Symbol struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	RangeStart int    `json:"rangeStart"`
	RangeEnd   int    `json:"rangeEnd"`
}

// Relation is a directed relation between two symbols.
type Relation struct {
	Src    string  `json:"src"`
	Dst    string  `json:"dst"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

// Smell holds per-file code metrics.
type Smell struct {
	FileID            string  `json:"fileId"`
	Score             float64 `json:"score"`
	FunctionCount     int     `json:"functionCount"`
	AvgFunctionLength float64 `json:"avgFunctionLength"`
	MaxFunctionLength int     `json:"maxFunctionLength"`
	MaxNestingDepth   int     `json:"maxNestingDepth"`
	ImportCount       int     `json:"importCount"`
}

// Change is one file's entry in a change session.
type Change struct {
	FileID      string `json:"fileId"`
	SummaryText string `json:"summaryText"`
	HunksJSON   string `json:"hunksJson"`
}

// BranchChange is a file changed on the current branch.
type BranchChange struct {
	FilePath string `json:"filePath"`
	DiffText string `json:"diffText"`
}

// Indexer reads the code index.
type Indexer interface {
	ListFiles(ctx context.Context) ([]File, error)
	ListNodes(ctx context.Context) ([]Symbol, error)
	ListEdges(ctx context.Context) ([]Relation, error)
	GetNodeByID(ctx context.Context, id string) (Symbol, bool, error)
	ListFileSmells(ctx context.Context) ([]Smell, error)
}

// ChangeTracker reads and records git change sessions.
type ChangeTracker interface {
	// CreateSessionFromGitChanges snapshots the current branch changes into a
	// new session. ok is false when there is nothing to record.
	CreateSessionFromGitChanges(ctx context.Context) (id string, ok bool, err error)
	GetChangesBySession(ctx context.Context, id string) ([]Change, error)
	GetCurrentBranchChanges(ctx context.Context) ([]BranchChange, error)
}
