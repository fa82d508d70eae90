// Package watch reloads the map when its input files change.
//
// A [Watcher] observes a set of files through fsnotify on their parent
// directories, so atomic rename-over writes are seen, and coalesces bursts
// of events per file with a [Debouncer]. An optional poll interval adds a
// stat-based check for filesystems that do not deliver events.
package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval enables stat polling in addition to fsnotify.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.poll = d }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

type fileState struct {
	mtime time.Time
	size  int64
}

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	onChange func(path string)
	debounce time.Duration
	poll     time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	files  map[string]*Debouncer
	states map[string]fileState
}

// New creates a watcher that calls onChange with the absolute path of each
// changed file. Writes to a SQLite write-ahead log count as changes to the
// database file.
func New(paths []string, onChange func(path string), opts ...Option) (*Watcher, error) {
	w := &Watcher{
		onChange: onChange,
		files:    make(map[string]*Debouncer, len(paths)),
		states:   make(map[string]fileState, len(paths)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		w.files[abs] = NewDebouncer(w.debounce)
		w.states[abs] = stat(abs)
	}
	return w, nil
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// Run watches until ctx is cancelled. Pending debounced calls are dropped
// on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		for _, d := range w.files {
			d.Cancel()
		}
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		if w.poll <= 0 {
			return err
		}
		w.logger.Warn("fsnotify unavailable, polling", "err", err)
		fsw = nil
	}
	var events chan fsnotify.Event
	var errs chan error
	if fsw != nil {
		defer fsw.Close()
		dirs := map[string]bool{}
		for p := range w.files {
			dirs[filepath.Dir(p)] = true
		}
		for dir := range dirs {
			if err := fsw.Add(dir); err != nil {
				return err
			}
		}
		events, errs = fsw.Events, fsw.Errors
	}

	var tick <-chan time.Time
	if w.poll > 0 {
		t := time.NewTicker(w.poll)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if p, ok := w.match(ev.Name); ok {
				w.trigger(p)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-tick:
			w.pollOnce()
		}
	}
}

// match maps an event path to a watched file.
func (w *Watcher) match(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	if _, ok := w.files[abs]; ok {
		return abs, true
	}
	base := strings.TrimSuffix(abs, "-wal")
	if _, ok := w.files[base]; ok && base != abs {
		return base, true
	}
	return "", false
}

func (w *Watcher) pollOnce() {
	for p := range w.files {
		cur := stat(p)
		w.mu.Lock()
		prev := w.states[p]
		w.states[p] = cur
		w.mu.Unlock()
		if cur != prev && !cur.mtime.IsZero() {
			w.trigger(p)
		}
	}
}

func (w *Watcher) trigger(path string) {
	w.mu.Lock()
	w.states[path] = stat(path)
	w.mu.Unlock()
	w.files[path].Trigger(func() { w.onChange(path) })
}

func stat(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{mtime: info.ModTime(), size: info.Size()}
}
