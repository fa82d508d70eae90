package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Layout.Mode != ModePacked {
		t.Errorf("Layout.Mode = %q, want %q", cfg.Layout.Mode, ModePacked)
	}
	if cfg.Viewport.Threshold != 0.3 {
		t.Errorf("Viewport.Threshold = %v, want 0.3", cfg.Viewport.Threshold)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[layout]
mode = "force"

[packing]
gap = 30

[simulation.many_body.strength]
component = -1200
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"mode", cfg.Layout.Mode, ModeForce},
		{"gap", cfg.Packing.Gap, 30.0},
		{"step untouched", cfg.Packing.Step, 20.0},
		{"component charge", cfg.Simulation.ManyBody.Strength[graph.KindComponent], -1200.0},
		{"file charge kept", cfg.Simulation.ManyBody.Strength[graph.KindFile], -60.0},
		{"alpha decay kept", cfg.Simulation.AlphaDecay, 0.0228},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_ = os.WriteFile(path, []byte("[layout\nmode ="), 0o644)
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Routing.Margin = 12
	cfg.Server.Addr = ":9000"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Routing.Margin != 12 || got.Server.Addr != ":9000" {
		t.Errorf("round trip = margin %v addr %q", got.Routing.Margin, got.Server.Addr)
	}
	if got.Simulation.Link.Distance[graph.EdgeImports] != 120 {
		t.Errorf("imports distance = %v, want 120", got.Simulation.Link.Distance[graph.EdgeImports])
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CODEMAP_ADDR", ":8080")
	t.Setenv("CODEMAP_REDIS_ADDR", "cache:6379")
	t.Setenv("CODEMAP_INDEX", "/tmp/index.db")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.URL != "redis://cache:6379" {
		t.Errorf("Store.URL = %q", cfg.Store.URL)
	}
	if cfg.Index.Path != "/tmp/index.db" {
		t.Errorf("Index.Path = %q", cfg.Index.Path)
	}

	t.Setenv("CODEMAP_STORE", "none")
	cfg.ApplyEnv()
	if cfg.Store.URL != "none" {
		t.Errorf("CODEMAP_STORE should win, got %q", cfg.Store.URL)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	_ = os.WriteFile(path, []byte("CODEMAP_INDEX_TEST=from-dotenv\n"), 0o644)
	t.Setenv("CODEMAP_INDEX_TEST", "")
	os.Unsetenv("CODEMAP_INDEX_TEST")

	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv("CODEMAP_INDEX_TEST"); got != "from-dotenv" {
		t.Errorf("CODEMAP_INDEX_TEST = %q, want from-dotenv", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"force mode", func(c *Config) { c.Layout.Mode = ModeForce }, false},
		{"unknown mode", func(c *Config) { c.Layout.Mode = "radial" }, true},
		{"bad store", func(c *Config) { c.Store.URL = "s3://bucket" }, true},
		{"inverted scale", func(c *Config) { c.Viewport.MinScale, c.Viewport.MaxScale = 5, 1 }, true},
		{"threshold out of range", func(c *Config) { c.Viewport.Threshold = 20 }, true},
		{"alpha decay", func(c *Config) { c.Simulation.AlphaDecay = 1 }, true},
		{"zero step", func(c *Config) { c.Packing.Step = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	if p, ok := (StoreConfig{URL: "file:///tmp/p.json"}).StorePath(); !ok || p != "/tmp/p.json" {
		t.Errorf("StorePath() = %q, %v", p, ok)
	}
	if _, ok := (StoreConfig{URL: "redis://x"}).StorePath(); ok {
		t.Error("StorePath() ok for redis URL")
	}
}
