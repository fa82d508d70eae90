package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("callbacks = %d, want 1", n)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)
	if called.Load() {
		t.Error("callback ran after Cancel()")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	if d := NewDebouncer(0); d.Duration() != DefaultDebounce {
		t.Errorf("Duration() = %v, want %v", d.Duration(), DefaultDebounce)
	}
}

type changes struct {
	mu    sync.Mutex
	paths []string
}

func (c *changes) add(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, p)
}

func (c *changes) wait(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := append([]string(nil), c.paths...)
		c.mu.Unlock()
		if len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d changes", n)
	return nil
}

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			t.Errorf("Run() error: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher time to register its directories.
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "graph.json")
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(file, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var c changes
	w, err := New([]string{file}, c.add, WithDebounce(30*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	start(t, w)

	if err := os.WriteFile(other, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(file, []byte(`{"nodes":[]}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := c.wait(t, 1)
	time.Sleep(100 * time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.paths) != 1 {
		t.Errorf("changes = %v, want one debounced change", c.paths)
	}
	if got[0] != file {
		t.Errorf("changed path = %q, want %q", got[0], file)
	}
}

func TestWatcher_AtomicRename(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "graph.json")

	var c changes
	w, err := New([]string{file}, c.add, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	start(t, w)

	tmp := filepath.Join(dir, ".graph.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, file); err != nil {
		t.Fatal(err)
	}
	if got := c.wait(t, 1); got[0] != file {
		t.Errorf("changed path = %q, want %q", got[0], file)
	}
}

func TestWatcher_WALCountsAsDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "index.db")

	var c changes
	w, err := New([]string{db}, c.add, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	start(t, w)

	if err := os.WriteFile(db+"-wal", []byte("wal"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := c.wait(t, 1); got[0] != db {
		t.Errorf("changed path = %q, want %q", got[0], db)
	}
}

func TestWatcher_Poll(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "graph.json")

	var c changes
	w, err := New([]string{file}, c.add, WithDebounce(10*time.Millisecond), WithPollInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := w.Paths(); len(got) != 1 || got[0] != file {
		t.Errorf("Paths() = %v, want [%s]", got, file)
	}
	w.pollOnce()
	if err := os.WriteFile(file, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	w.pollOnce()
	if got := c.wait(t, 1); got[0] != file {
		t.Errorf("changed path = %q, want %q", got[0], file)
	}
}
