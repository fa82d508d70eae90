// Package positions persists pinned component positions between sessions.
//
// When the user drags a component or directory, its final position is saved
// under the node ID. The next [engine] update seeds those nodes as pinned,
// so a hand-arranged map survives reloads. Backends:
//
//   - [FileStore]: one JSON file mapping ID to {x, y}, for the CLI
//   - [RedisStore]: one Redis hash, for shared deployments
//   - [MongoStore]: one document per ID
//   - [NullStore]: persistence disabled
//
// [Open] selects a backend from a URL.
package positions

import (
	"context"
	"strings"

	"github.com/matzehuels/codemap/pkg/config"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
)

// Store persists positions keyed by node ID.
type Store interface {
	// Load returns every stored position.
	Load(ctx context.Context) (map[string]graph.Point, error)
	// Save stores p under key, replacing any previous value.
	Save(ctx context.Context, key string, p graph.Point) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open connects to the store named by cfg.URL:
//
//	file:///path/positions.json
//	redis://[:password@]host:port/db
//	mongodb://host:port/database
//	none (or empty)
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	if err := errors.ValidateStoreURL(cfg.URL); err != nil {
		return nil, err
	}
	switch u := cfg.URL; {
	case u == "" || u == "none":
		return NullStore{}, nil
	case strings.HasPrefix(u, "file://"):
		path, _ := cfg.StorePath()
		return NewFileStore(path)
	case strings.HasPrefix(u, "redis://"), strings.HasPrefix(u, "rediss://"):
		return NewRedisStore(ctx, u, cfg.Namespace)
	default:
		return NewMongoStore(ctx, u, cfg.Namespace)
	}
}

// NullStore stores nothing.
type NullStore struct{}

func (NullStore) Load(context.Context) (map[string]graph.Point, error) {
	return map[string]graph.Point{}, nil
}

func (NullStore) Save(context.Context, string, graph.Point) error { return nil }

func (NullStore) Delete(context.Context, string) error { return nil }

func (NullStore) Close() error { return nil }

var _ Store = NullStore{}
