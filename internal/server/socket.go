package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/session"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/gorilla/websocket"
)

// Event names used on the socket.
const (
	EventConnectionResponse = "connection_response"
	EventDownload           = "download"
	EventClear              = "clear"
	EventLoadSettings       = "loadSettings"
	EventUpdateSettings     = "updateSettings"
	EventSettingsLoaded     = "settingsLoaded"
	EventDisconnected       = "disconnected"
)

const (
	StatusConnected = "Connected"
	StatusSuccess   = "Success"
	StatusError     = "Error"
)

// ConnectionResponse acknowledges or rejects a new connection.
type ConnectionResponse struct {
	Status  string `json:"Status"`
	User    string `json:"User,omitempty"`
	Message string `json:"Message,omitempty"`
}

// DownloadRequest is the payload of an inbound download event.
type DownloadRequest struct {
	Link string `json:"Link"`
}

// DownloadResponse acknowledges a submission. Data carries the error text on failure.
type DownloadResponse struct {
	Status string `json:"Status"`
	Data   string `json:"Data,omitempty"`
}

// Settings is the payload of settingsLoaded and updateSettings.
type Settings struct {
	SleepInterval Seconds `json:"sleep_interval"`
	ThreadLimit   int     `json:"thread_limit,omitempty"`
}

// Seconds decodes from either a JSON number or a numeric string, as sent by form inputs.
type Seconds float64

func (s *Seconds) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: sleep_interval %q", shared.ErrInvalidInput, raw)
	}
	*s = Seconds(f)
	return nil
}

func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// SocketHandler upgrades /ws requests and routes socket events to the user's session.
type SocketHandler struct {
	hub      *Hub
	registry *session.Registry
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func NewSocketHandler(hub *Hub, registry *session.Registry, logger *log.Logger) *SocketHandler {
	return &SocketHandler{
		hub:      hub,
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *SocketHandler) Routes() []string {
	return []string{"/ws"}
}

func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	sess, err := h.registry.Connect(user)
	if err != nil {
		h.reject(conn, err)
		return
	}

	c := newClient(h.hub, conn, user)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.hub.remove(c)
		h.registry.Disconnect(user)
		h.hub.Publish(user, EventDisconnected, ConnectionResponse{Status: StatusSuccess, User: user})
		h.logger.Info("client disconnected", "user", user, "client", c.ID)
	}()

	if msg, err := encode(EventConnectionResponse, ConnectionResponse{Status: StatusConnected, User: user}); err == nil {
		c.send <- msg
	}
	h.hub.add(c)
	h.hub.Send(c, session.EventProgressStatus, sess.Queue.Snapshot())
	h.logger.Info("client connected", "user", user, "client", c.ID)

	go c.writePump()
	c.readPump(func(env Envelope) { h.dispatch(ctx, c, sess, env) })
}

func (h *SocketHandler) reject(conn *websocket.Conn, err error) {
	defer conn.Close()

	msg := err.Error()
	if errors.Is(err, shared.ErrMissingUser) {
		msg = "User parameter is missing"
	}
	h.logger.Warn("connection rejected", "error", err)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if b, err := encode(EventConnectionResponse, ConnectionResponse{Status: StatusError, Message: msg}); err == nil {
		conn.WriteMessage(websocket.TextMessage, b)
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg))
}

func (h *SocketHandler) dispatch(ctx context.Context, c *Client, sess *session.Session, env Envelope) {
	logger := h.logger.With("user", c.User, "event", env.Event)

	switch env.Event {
	case EventDownload:
		var req DownloadRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || strings.TrimSpace(req.Link) == "" {
			h.hub.Send(c, EventDownload, DownloadResponse{Status: StatusError, Data: "Link is missing"})
			return
		}
		// Expansion can take a while; keep reading so pongs are still handled.
		go func() {
			if err := sess.Queue.Submit(ctx, strings.TrimSpace(req.Link)); err != nil {
				logger.Error("submit failed", "link", req.Link, "error", err)
				h.hub.Send(c, EventDownload, DownloadResponse{Status: StatusError, Data: err.Error()})
				return
			}
			logger.Info("link queued", "link", req.Link)
			h.hub.Send(c, EventDownload, DownloadResponse{Status: StatusSuccess})
		}()
	case EventClear:
		sess.Queue.Clear()
		logger.Info("queue cleared")
	case EventLoadSettings:
		h.hub.Send(c, EventSettingsLoaded, settingsOf(sess))
	case EventUpdateSettings:
		var s Settings
		if err := json.Unmarshal(env.Data, &s); err != nil || s.SleepInterval < 0 {
			logger.Warn("invalid settings", "error", err)
			return
		}
		sess.Queue.SetSleepInterval(s.SleepInterval.Duration())
		logger.Info("settings updated", "sleep_interval", s.SleepInterval.Duration())
		h.hub.Publish(c.User, EventSettingsLoaded, settingsOf(sess))
	default:
		logger.Debug("ignoring unknown event")
	}
}

func settingsOf(sess *session.Session) Settings {
	return Settings{
		SleepInterval: Seconds(sess.Queue.SleepInterval().Seconds()),
		ThreadLimit:   sess.Queue.ThreadLimit(),
	}
}
