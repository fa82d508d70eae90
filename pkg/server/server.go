// Package server exposes an engine to browser and editor hosts.
//
// Commands arrive as JSON over HTTP or as websocket messages; every engine
// push is fanned out to websocket clients by a [Hub].
package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/codemap/pkg/buildinfo"
	"github.com/matzehuels/codemap/pkg/engine"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/render"
	"github.com/matzehuels/codemap/pkg/source"
)

// maxBody bounds request bodies, graph uploads included.
const maxBody = 64 << 20

// Options configures a Server.
type Options struct {
	Engine *engine.Engine
	Hub    *Hub
	// Indexer, when set, backs POST /api/reload.
	Indexer source.Indexer
	// Tracker, when set, backs the change overlay endpoints.
	Tracker source.ChangeTracker
	// Mode is the layout mode for reloads that do not name one.
	Mode   engine.Mode
	Logger *log.Logger
}

// Server routes host requests to one engine.
type Server struct {
	eng     *engine.Engine
	hub     *Hub
	indexer source.Indexer
	tracker source.ChangeTracker
	mode    engine.Mode
	logger  *log.Logger
	up      websocket.Upgrader
}

// New creates a server. The hub must be the engine's publisher.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	mode := opts.Mode
	if mode == "" {
		mode = engine.ModePacked
	}
	return &Server{
		eng:     opts.Engine,
		hub:     opts.Hub,
		indexer: opts.Indexer,
		tracker: opts.Tracker,
		mode:    mode,
		logger:  logger.WithPrefix("server"),
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/graph", s.handleGetGraph)
		r.Post("/graph", s.handlePostGraph)
		r.Post("/reload", s.handleReload)
		r.Get("/path", s.handlePath)
		r.Post("/drag/{phase}", s.handleDrag)
		r.Post("/viewport/{op}", s.handleViewport)
		r.Post("/open", s.handleOpen)
		r.Post("/overlay", s.handleOverlay)
		r.Get("/branch", s.handleBranch)
		r.Get("/centered", s.handleCentered)
		r.Get("/render.svg", s.handleRenderSVG)
	})
	r.Get("/ws", s.handleWS)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	return srv.Shutdown(shutdown)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "dur", time.Since(start).Round(time.Microsecond))
	})
}

// Reload rebuilds the graph from the indexer.
func (s *Server) Reload(ctx context.Context, mode engine.Mode) error {
	if s.indexer == nil {
		return errors.New(errors.ErrCodeUnsupported, "no index configured")
	}
	nodes, edges, err := source.Load(ctx, s.indexer, s.logger)
	if err != nil {
		return err
	}
	return s.eng.Update(ctx, nodes, edges, mode)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleGetGraph(w http.ResponseWriter, _ *http.Request) {
	data, err := s.eng.FrameJSON()
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode frame"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) modeParam(r *http.Request) (engine.Mode, error) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return s.mode, nil
	}
	m, ok := engine.ParseMode(raw)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown layout mode %q", raw)
	}
	return m, nil
}

func (s *Server) handlePostGraph(w http.ResponseWriter, r *http.Request) {
	mode, err := s.modeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := graph.ReadUpdate(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph"))
		return
	}
	if err := s.eng.Update(r.Context(), u.Nodes, u.Edges, mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": len(u.Nodes), "mode": mode})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	mode, err := s.modeParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Reload(r.Context(), mode); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	for _, id := range []string{from, to} {
		if err := errors.ValidateNodeID(id); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.eng.Path(from, to))
}

type dragRequest struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.drag(r.Context(), chi.URLParam(r, "phase"), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) drag(ctx context.Context, phase string, req dragRequest) error {
	switch phase {
	case "start":
		if err := errors.ValidateNodeID(req.ID); err != nil {
			return err
		}
		return s.eng.DragStart(ctx, req.ID)
	case "move":
		s.eng.DragMove(req.X, req.Y)
	case "end":
		s.eng.DragEnd(ctx)
	default:
		return errors.New(errors.ErrCodeNotFound, "unknown drag phase %q", phase)
	}
	return nil
}

type viewportRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	K       float64 `json:"k"`
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
	DeltaY  float64 `json:"deltaY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Animate bool    `json:"animate"`
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.viewport(chi.URLParam(r, "op"), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.eng.Transform())
}

func (s *Server) viewport(op string, req viewportRequest) error {
	switch op {
	case "wheel":
		s.eng.Wheel(req.X, req.Y, req.DeltaY)
	case "zoom":
		s.eng.Zoom(req.K, req.X, req.Y)
	case "pan":
		s.eng.Pan(req.DX, req.DY)
	case "fit":
		s.eng.Fit(req.Animate)
	case "resize":
		if req.Width <= 0 || req.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "width and height must be positive")
		}
		s.eng.SetSize(req.Width, req.Height)
	default:
		return errors.New(errors.ErrCodeNotFound, "unknown viewport operation %q", op)
	}
	return nil
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	click, err := s.eng.OpenRequest(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, click)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no change tracker configured"))
		return
	}
	overlay, _, err := s.eng.Highlight(r.Context(), s.tracker)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overlay)
}

func (s *Server) handleBranch(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no change tracker configured"))
		return
	}
	changes, err := s.eng.BranchChanges(r.Context(), s.tracker)
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []source.BranchChange{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func (s *Server) handleCentered(w http.ResponseWriter, _ *http.Request) {
	c, ok := s.eng.Centered()
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no container under the screen centre"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRenderSVG(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	var err error
	s.eng.Inspect(func(f engine.Frame) {
		err = render.SVG(&buf, render.Scene{Nodes: f.Nodes, Connectors: f.Connectors, Title: "codemap"}, render.DefaultOptions())
	})
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}
