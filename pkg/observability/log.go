package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug log line. It implements all hook
// interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger, prefixed "obs".
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

// Register installs h in every registry.
func (h *LogHooks) Register() {
	SetLayoutHooks(h)
	SetCacheHooks(h)
	SetPushHooks(h)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, mode string, nodeCount int) {
	h.logger.Debug("layout start", "mode", mode, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, mode string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout failed", "mode", mode, "duration", d, "err", err)
		return
	}
	h.logger.Debug("layout done", "mode", mode, "duration", d)
}

func (h *LogHooks) OnSettled(_ context.Context, ticks, degenerate int) {
	h.logger.Debug("simulation settled", "ticks", ticks, "degenerate", degenerate)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnClientConnect(_ context.Context, id string) {
	h.logger.Debug("client connected", "client", id)
}

func (h *LogHooks) OnClientDisconnect(_ context.Context, id string) {
	h.logger.Debug("client disconnected", "client", id)
}

func (h *LogHooks) OnDrop(_ context.Context, id, messageType string) {
	h.logger.Debug("message dropped", "client", id, "type", messageType)
}

var (
	_ LayoutHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ PushHooks   = (*LogHooks)(nil)
)
