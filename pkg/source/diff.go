package source

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Hunk is a diff hunk header with its line counts.
type Hunk struct {
	Header  string `json:"header"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// ParseHunks splits a unified diff into hunks. Lines before the first
// "@@" header are ignored.
func ParseHunks(diff string) []Hunk {
	var hunks []Hunk
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			hunks = append(hunks, Hunk{Header: strings.TrimSpace(line)})
		case len(hunks) == 0:
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			hunks[len(hunks)-1].Added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			hunks[len(hunks)-1].Removed++
		}
	}
	return hunks
}

// summarize builds a session entry from a branch diff.
func summarize(fileID string, bc BranchChange) Change {
	hunks := ParseHunks(bc.DiffText)
	added, removed := 0, 0
	for _, h := range hunks {
		added += h.Added
		removed += h.Removed
	}
	raw, _ := json.Marshal(hunks)
	if hunks == nil {
		raw = []byte("[]")
	}
	return Change{
		FileID:      fileID,
		SummaryText: fmt.Sprintf("%s: %d hunks, +%d -%d", bc.FilePath, len(hunks), added, removed),
		HunksJSON:   string(raw),
	}
}

// sessionChanges resolves branch changes to indexed files. Changes to
// paths the index does not know are dropped.
func sessionChanges(files []File, branch []BranchChange) []Change {
	byPath := make(map[string]string, len(files))
	for _, f := range files {
		byPath[f.Path] = f.ID
	}
	var out []Change
	for _, bc := range branch {
		id, ok := byPath[bc.FilePath]
		if !ok {
			continue
		}
		out = append(out, summarize(id, bc))
	}
	return out
}

// ChangedFiles returns the set of file IDs touched by a session.
func ChangedFiles(changes []Change) map[string]bool {
	out := make(map[string]bool, len(changes))
	for _, c := range changes {
		out[c.FileID] = true
	}
	return out
}
