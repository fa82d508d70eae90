// Package cache stores computed layouts and rendered artifacts keyed by
// content hash.
//
// Packing a large map and settling a force simulation both take long enough
// to be worth skipping when the graph has not changed. Callers derive a key
// from [github.com/matzehuels/codemap/pkg/graph.Hash] through a [Keyer] and
// store the encoded result in any [Cache] backend:
//
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [MemoryCache]: bounded LRU, for the long-running server
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored data and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Fetch returns the cached value for key, or computes, stores and returns it.
// The boolean reports a cache hit. A failing Set is ignored: the computed
// value is still returned.
func Fetch(ctx context.Context, c Cache, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, bool, error) {
	if c == nil {
		c = NewNullCache()
	}
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	data, err := compute()
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, data, ttl)
	return data, false, nil
}

// =============================================================================
// Keys
// =============================================================================

// LayoutKeyOpts identifies the inputs of a layout beyond the graph itself.
type LayoutKeyOpts struct {
	Mode   string `json:"mode"`
	Params any    `json:"params,omitempty"` // mode-specific options, hashed as JSON
}

// ArtifactKeyOpts identifies a rendered artifact of a layout.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the graph hash with the layout options.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey hashes the layout hash with the artifact options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
