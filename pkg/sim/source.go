package sim

import (
	"sync"
	"time"
)

// TickSource drives a running simulation. Start replaces any previous
// callback, so repeated starts never accumulate timers. Stop is idempotent.
type TickSource interface {
	Start(interval time.Duration, fn func())
	Stop()
}

// TimerSource ticks on a [time.Ticker] in its own goroutine. The callback
// runs on that goroutine; owners that share state with other goroutines
// must serialise inside fn.
type TimerSource struct {
	mu   sync.Mutex
	stop chan struct{}
}

// NewTimerSource creates a stopped timer source.
func NewTimerSource() *TimerSource { return &TimerSource{} }

// Start begins calling fn every interval, stopping any previous loop first.
func (t *TimerSource) Start(interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	stop := make(chan struct{})
	t.stop = stop
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
}

// Stop halts the loop. It does not wait for an in-flight callback.
func (t *TimerSource) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Running reports whether a loop is active.
func (t *TimerSource) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *TimerSource) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// ManualSource lets the owner drive frames explicitly, for tests and for
// hosts that already have a frame loop.
type ManualSource struct {
	fn       func()
	interval time.Duration
	starts   int
}

// Start records the callback.
func (m *ManualSource) Start(interval time.Duration, fn func()) {
	m.fn = fn
	m.interval = interval
	m.starts++
}

// Stop forgets the callback.
func (m *ManualSource) Stop() { m.fn = nil }

// Running reports whether a callback is registered.
func (m *ManualSource) Running() bool { return m.fn != nil }

// Starts returns how many times Start was called.
func (m *ManualSource) Starts() int { return m.starts }

// Frame runs one callback if running. It reports whether a frame ran.
func (m *ManualSource) Frame() bool {
	if m.fn == nil {
		return false
	}
	m.fn()
	return true
}

// Advance runs up to n frames, stopping early when the source is stopped.
// It returns the number of frames run.
func (m *ManualSource) Advance(n int) int {
	ran := 0
	for ran < n && m.Frame() {
		ran++
	}
	return ran
}
