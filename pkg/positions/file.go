package positions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/matzehuels/codemap/pkg/graph"
)

// FileStore keeps positions in a single JSON file of the form
// {"<id>": {"x": 1, "y": 2}}. Writes replace the file atomically.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store backed by path. The parent directory is
// created; the file itself appears on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (map[string]graph.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, key string, p graph.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[key] = p
	return s.write(all)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := all[key]; !ok {
		return nil
	}
	delete(all, key)
	return s.write(all)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]graph.Point, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]graph.Point{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	all := map[string]graph.Point{}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse positions %s: %w", s.path, err)
	}
	return all, nil
}

func (s *FileStore) write(all map[string]graph.Point) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".positions-*")
	if err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write positions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write positions: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

var _ Store = (*FileStore)(nil)
