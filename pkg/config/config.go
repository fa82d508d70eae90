// Package config loads codemap's TOML configuration.
//
// Every tuning constant of the layout core lives here with its default:
// simulation forces and cooling, packing grid and gaps, connector margin,
// zoom bounds and the semantic zoom threshold. A missing file yields
// [Default]; a partial file overrides only the keys it names.
//
// Deployment settings (listen address, position store, index database) can
// also come from the environment, optionally seeded from a .env file:
//
//	CODEMAP_ADDR        server listen address
//	CODEMAP_STORE       position store URL (file://, redis://, mongodb://, none)
//	CODEMAP_REDIS_ADDR  shorthand for CODEMAP_STORE=redis://<addr>
//	CODEMAP_MONGO_URI   shorthand for CODEMAP_STORE=<uri>
//	CODEMAP_INDEX       path of the indexer's SQLite database
//	CODEMAP_CACHE_DIR   layout cache directory
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/pack"
	"github.com/matzehuels/codemap/pkg/route"
	"github.com/matzehuels/codemap/pkg/sim"
	"github.com/matzehuels/codemap/pkg/viewport"
)

// Layout modes.
const (
	ModePacked = "packed"
	ModeForce  = "force"
)

// Config is the complete codemap configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Index  IndexConfig  `toml:"index"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`

	Simulation sim.Params       `toml:"simulation"`
	Packing    pack.Options     `toml:"packing"`
	Routing    route.Options    `toml:"routing"`
	Viewport   viewport.Options `toml:"viewport"`
}

// ServerConfig controls the host server.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// Width and Height size the server-side panel until a client reports its own.
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	// Watch is a graph snapshot file reloaded on change. Empty disables watching.
	Watch      string `toml:"watch"`
	DebounceMS int    `toml:"debounce_ms"`
}

// StoreConfig selects where pinned component positions persist.
type StoreConfig struct {
	// URL is file://<path>, redis://<addr>/<db>, mongodb://<host>/<db> or none.
	URL string `toml:"url"`
	// Namespace is the Redis hash key, Mongo collection or file name.
	Namespace string `toml:"namespace"`
}

// IndexConfig points at the indexer database.
type IndexConfig struct {
	Path string `toml:"path"`
	// PollSeconds reloads the index periodically when > 0.
	PollSeconds int `toml:"poll_seconds"`
}

// CacheConfig controls the layout cache.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	// Entries bounds the in-memory cache used by the server.
	Entries  int `toml:"entries"`
	TTLHours int `toml:"ttl_hours"`
}

// TTL returns the cache entry lifetime. Zero never expires.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// LayoutConfig chooses the default layout mode.
type LayoutConfig struct {
	Mode string `toml:"mode"`
	// MaxTicks bounds synchronous settling of force layouts.
	MaxTicks int `toml:"max_ticks"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: "127.0.0.1:7420", Width: 1280, Height: 800, DebounceMS: 200},
		Store:  StoreConfig{URL: "file://" + filepath.Join(Dir(), "positions.json"), Namespace: "codemap:positions"},
		Cache:  CacheConfig{Dir: filepath.Join(cacheHome(), "codemap"), Entries: 256, TTLHours: 24 * 7},
		Layout: LayoutConfig{Mode: ModePacked, MaxTicks: 600},

		Simulation: sim.DefaultParams(),
		Packing:    pack.DefaultOptions(),
		Routing:    route.DefaultOptions(),
		Viewport:   viewport.DefaultOptions(),
	}
}

// Dir returns the codemap config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "codemap")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func cacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache")
}

// Load reads the config file at path over the defaults. An empty path means
// [Path]. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. An empty path means
// [Path].
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides deployment settings from CODEMAP_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CODEMAP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CODEMAP_REDIS_ADDR"); v != "" {
		c.Store.URL = "redis://" + v
	}
	if v := os.Getenv("CODEMAP_MONGO_URI"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("CODEMAP_STORE"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("CODEMAP_INDEX"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("CODEMAP_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
}

// Validate rejects settings the layout core cannot absorb.
func (c *Config) Validate() error {
	switch c.Layout.Mode {
	case ModePacked, ModeForce:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "layout.mode must be %q or %q, got %q", ModePacked, ModeForce, c.Layout.Mode)
	}
	if err := errors.ValidateStoreURL(c.Store.URL); err != nil {
		return err
	}
	v := c.Viewport
	if v.MinScale <= 0 || v.MaxScale < v.MinScale {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport scale bounds [%g, %g] are invalid", v.MinScale, v.MaxScale)
	}
	if v.Threshold < v.MinScale || v.Threshold > v.MaxScale {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport.threshold %g outside [%g, %g]", v.Threshold, v.MinScale, v.MaxScale)
	}
	s := c.Simulation
	if s.AlphaDecay <= 0 || s.AlphaDecay >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "simulation.alpha_decay must be in (0, 1)")
	}
	if s.VelocityDecay <= 0 || s.VelocityDecay > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "simulation.velocity_decay must be in (0, 1]")
	}
	if c.Packing.Step <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "packing.step must be positive")
	}
	return nil
}

// StorePath returns the file path of a file:// store URL.
func (c StoreConfig) StorePath() (string, bool) {
	p, ok := strings.CutPrefix(c.URL, "file://")
	return p, ok
}
