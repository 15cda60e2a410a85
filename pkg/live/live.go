package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/dropzone/pkg/dropzone"
	"github.com/vango-dev/dropzone/pkg/vdom"
)

// Message types.
const (
	TypeDrop   = "drop"
	TypeRemove = "remove"
	TypeDrag   = "drag"
	TypeStored = "stored"
	TypeRender = "render"
	TypeError  = "error"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type   string              `json:"type"`
	Files  []dropzone.FileInfo `json:"files,omitempty"`
	Name   string              `json:"name,omitempty"`
	Active bool                `json:"active,omitempty"`
}

// ServerMessage is sent back after every client message. ReplyTo names the
// client message type it answers, so a client can tell the reply to a drop
// from the reply to a drag that was sent just before it.
type ServerMessage struct {
	Type     string               `json:"type"`
	ReplyTo  string               `json:"reply_to,omitempty"`
	HTML     string               `json:"html,omitempty"`
	Rejected []dropzone.Rejection `json:"rejected"`
	Message  string               `json:"message,omitempty"`
}

// Config configures the live handler.
type Config struct {
	// ReadBufferSize and WriteBufferSize size the connection buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// MaxMessageSize caps a single client message in bytes.
	// Default: 64KB.
	MaxMessageSize int64

	// IdleTimeout closes connections with no client message for this long.
	// Default: 5 minutes.
	IdleTimeout time.Duration

	// CheckOrigin validates the upgrade request's Origin header.
	// If nil, only same-origin requests are accepted.
	CheckOrigin func(r *http.Request) bool

	// Logger is used for connection logging.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxMessageSize:  64 * 1024,
		IdleTimeout:     5 * time.Minute,
	}
}

// Handler returns a WebSocket handler that creates one Field per connection
// with newField.
func Handler(newField func(*http.Request) *dropzone.Field, logger *slog.Logger) http.Handler {
	cfg := DefaultConfig()
	cfg.Logger = logger
	return HandlerWithConfig(newField, cfg)
}

// HandlerWithConfig returns a WebSocket handler with custom configuration.
func HandlerWithConfig(newField func(*http.Request) *dropzone.Field, config *Config) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		if config.MaxMessageSize > 0 {
			conn.SetReadLimit(config.MaxMessageSize)
		}

		s := &session{conn: conn, field: newField(r), logger: logger, idle: config.IdleTimeout}
		logger.Debug("live session opened", "field", s.field.Name(), "remote", r.RemoteAddr)
		s.run()
	})
}

// session is one connection and its Field. Reads and writes both happen on
// the handler goroutine.
type session struct {
	conn   *websocket.Conn
	field  *dropzone.Field
	logger *slog.Logger
	idle   time.Duration
}

func (s *session) run() {
	for {
		if s.idle > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.idle))
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("live session closed", "field", s.field.Name(), "error", err)
			}
			return
		}

		reply := s.handle(data)
		if err := s.conn.WriteJSON(reply); err != nil {
			s.logger.Warn("live write failed", "field", s.field.Name(), "error", err)
			return
		}
	}
}

var errUnknownType = errors.New("unknown message type")

// handle applies one client message and builds the reply.
func (s *session) handle(data []byte) ServerMessage {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorMessage("invalid message: " + err.Error())
	}

	var rejected []dropzone.Rejection
	switch msg.Type {
	case TypeDrop:
		rejected = s.field.Drop(previewable(msg.Files))
	case TypeRemove:
		s.field.Remove(msg.Name)
		rejected = s.field.Rejected()
	case TypeDrag:
		s.field.SetDragActive(msg.Active)
		rejected = s.field.Rejected()
	case TypeStored:
		s.field.Attach(msg.Files)
		rejected = s.field.Rejected()
	default:
		s.logger.Debug("live message ignored", "type", msg.Type)
		return errorMessage(errUnknownType.Error() + ": " + msg.Type)
	}

	html, err := vdom.RenderToString(s.field.Render())
	if err != nil {
		s.logger.Error("live render failed", "field", s.field.Name(), "error", err)
		return errorMessage("render failed")
	}
	if rejected == nil {
		rejected = []dropzone.Rejection{}
	}
	return ServerMessage{Type: TypeRender, ReplyTo: msg.Type, HTML: html, Rejected: rejected}
}

// previewable keeps only blob: object URLs on dropped files. Anything else
// would let one client point the rendered preview at an arbitrary address.
func previewable(files []dropzone.FileInfo) []dropzone.FileInfo {
	out := make([]dropzone.FileInfo, len(files))
	for i, f := range files {
		if !strings.HasPrefix(f.URL, "blob:") {
			f.URL = ""
		}
		f.TempID = ""
		out[i] = f
	}
	return out
}

func errorMessage(msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Message: msg, Rejected: []dropzone.Rejection{}}
}
