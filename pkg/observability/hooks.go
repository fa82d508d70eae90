// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through package-level hook registries. Each registry
// defaults to a no-op, so the layout core carries no dependency on a metrics
// backend. The CLI registers [LogHooks] under --verbose; a deployment can
// register its own implementation for Prometheus or OpenTelemetry.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(ctx, "packed", len(nodes))
//	// ... pack ...
//	observability.Layout().OnLayoutComplete(ctx, "packed", time.Since(start), nil)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout engine.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, mode string, nodeCount int)
	OnLayoutComplete(ctx context.Context, mode string, duration time.Duration, err error)

	// OnSettled fires when a force simulation cools below its minimum alpha.
	OnSettled(ctx context.Context, ticks, degenerate int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Push Hooks
// =============================================================================

// PushHooks receives events from the websocket hub.
type PushHooks interface {
	OnClientConnect(ctx context.Context, clientID string)
	OnClientDisconnect(ctx context.Context, clientID string)

	// OnDrop records a message not delivered to a slow client.
	OnDrop(ctx context.Context, clientID, messageType string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopLayoutHooks) OnSettled(context.Context, int, int)                            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopPushHooks is a no-op implementation of PushHooks.
type NoopPushHooks struct{}

func (NoopPushHooks) OnClientConnect(context.Context, string)    {}
func (NoopPushHooks) OnClientDisconnect(context.Context, string) {}
func (NoopPushHooks) OnDrop(context.Context, string, string)     {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	pushHooks   PushHooks   = NoopPushHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers layout hooks. Nil is ignored.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetPushHooks registers websocket hub hooks. Nil is ignored.
func SetPushHooks(h PushHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pushHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Push returns the registered push hooks.
func Push() PushHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pushHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	pushHooks = NoopPushHooks{}
}
