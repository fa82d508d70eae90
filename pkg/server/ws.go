package server

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/codemap/pkg/engine"
	"github.com/matzehuels/codemap/pkg/errors"
)

// inbound is a command sent by a websocket client. Fields are read
// according to Type.
type inbound struct {
	Type   string  `json:"type"`
	ID     string  `json:"id,omitempty"`
	From   string  `json:"from,omitempty"`
	To     string  `json:"to,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	K      float64 `json:"k,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// wsError is sent to the one client whose command failed.
type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleWS upgrades the connection, sends the current frame and then
// applies client commands until the connection closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := s.hub.register()
	defer s.hub.unregister(c)

	if data, err := s.frameMessage(); err == nil {
		s.hub.queue(c, data)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(ctx, conn, c)
		cancel()
	}()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for ctx.Err() == nil {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			break
		}
		if err := s.command(ctx, in); err != nil {
			s.reply(c, "error", wsError{Code: string(errors.GetCode(err)), Message: errors.UserMessage(err)})
		}
	}
	cancel()
	<-done
}

func (s *Server) frameMessage() ([]byte, error) {
	frame, err := s.eng.FrameJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{engine.TypeGraphUpdate, frame})
}

// reply queues a message for one client without blocking.
func (s *Server) reply(c *client, msgType string, payload any) {
	data, err := json.Marshal(engine.Message{Type: msgType, Payload: payload})
	if err != nil {
		return
	}
	s.hub.queue(c, data)
}

func (s *Server) command(ctx context.Context, in inbound) error {
	switch in.Type {
	case "drag:start", "drag:move", "drag:end":
		return s.drag(ctx, in.Type[len("drag:"):], dragRequest{ID: in.ID, X: in.X, Y: in.Y})
	case "pointer:down":
		s.eng.PointerDown(ctx, in.X, in.Y)
	case "pointer:move":
		s.eng.PointerMove(in.X, in.Y)
	case "pointer:up":
		s.eng.PointerUp(ctx)
	case "wheel", "zoom", "pan", "fit", "resize":
		return s.viewport(in.Type, viewportRequest{
			X: in.X, Y: in.Y, K: in.K, DX: in.DX, DY: in.DY, DeltaY: in.DeltaY,
			Width: in.Width, Height: in.Height,
		})
	case "path":
		if err := errors.ValidateNodeID(in.From); err != nil {
			return err
		}
		if err := errors.ValidateNodeID(in.To); err != nil {
			return err
		}
		s.eng.Path(in.From, in.To)
	case "open":
		_, err := s.eng.OpenRequest(in.ID)
		return err
	case "overlay":
		if s.tracker == nil {
			return errors.New(errors.ErrCodeUnsupported, "no change tracker configured")
		}
		_, _, err := s.eng.Highlight(ctx, s.tracker)
		return err
	case "reload":
		return s.Reload(ctx, s.mode)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported message type %q", in.Type)
	}
	return nil
}
