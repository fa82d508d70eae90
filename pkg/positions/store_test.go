package positions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/codemap/pkg/config"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
)

// exerciseStore runs the Store contract against any backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	all, err := s.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	require.NoError(t, s.Save(ctx, "component:api", graph.Point{X: 120, Y: -40.5}))
	require.NoError(t, s.Save(ctx, "component:web", graph.Point{X: 0.25, Y: 3}))
	require.NoError(t, s.Save(ctx, "component:api", graph.Point{X: 130, Y: -40}))

	all, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]graph.Point{
		"component:api": {X: 130, Y: -40},
		"component:web": {X: 0.25, Y: 3},
	}, all)

	require.NoError(t, s.Delete(ctx, "component:web"))
	require.NoError(t, s.Delete(ctx, "component:missing"))
	all, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "positions.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	all, err := reopened.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, graph.Point{X: 130, Y: -40}, all["component:api"])
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))
	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.Error(t, err)
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	var s Store = NullStore{}
	require.NoError(t, s.Save(ctx, "a", graph.Point{X: 1}))
	all, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{URL: "none"})
	require.NoError(t, err)
	assert.IsType(t, NullStore{}, s)

	path := filepath.Join(t.TempDir(), "p.json")
	s, err = Open(ctx, config.StoreConfig{URL: "file://" + path})
	require.NoError(t, err)
	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())

	_, err = Open(ctx, config.StoreConfig{URL: "ftp://nowhere"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in   string
		want graph.Point
		ok   bool
	}{
		{"1,2", graph.Point{X: 1, Y: 2}, true},
		{"-3.5, 4e2", graph.Point{X: -3.5, Y: 400}, true},
		{"1", graph.Point{}, false},
		{"a,b", graph.Point{}, false},
	}
	for _, tt := range tests {
		got, ok := parsePoint(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parsePoint(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if p, _ := parsePoint(formatPoint(graph.Point{X: 0.1, Y: -1e-9})); p != (graph.Point{X: 0.1, Y: -1e-9}) {
		t.Errorf("formatPoint round trip = %v", p)
	}
}

func TestMongoDatabase(t *testing.T) {
	tests := []struct{ uri, want string }{
		{"mongodb://localhost:27017/maps", "maps"},
		{"mongodb://localhost:27017", "codemap"},
		{"mongodb+srv://user:pw@cluster.example.net/teamdb?retryWrites=true", "teamdb"},
	}
	for _, tt := range tests {
		got, err := mongoDatabase(tt.uri)
		if err != nil || got != tt.want {
			t.Errorf("mongoDatabase(%q) = %q, %v, want %q", tt.uri, got, err, tt.want)
		}
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("CODEMAP_TEST_REDIS")
	if url == "" {
		t.Skip("CODEMAP_TEST_REDIS not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, url, "codemap:test:"+t.Name())
	require.NoError(t, err)
	defer s.Close()
	defer s.client.Del(ctx, s.key)

	exerciseStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CODEMAP_TEST_MONGO")
	if uri == "" {
		t.Skip("CODEMAP_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "positions_test")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.coll.Drop(ctx))

	exerciseStore(t, s)
}
