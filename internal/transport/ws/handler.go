// Package ws serves the push channel: authenticated websocket connections
// registered in the hub under the caller's telegram identity.
package ws

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/hub"
	"github.com/saverr-hub/internal/application/notification"
	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/pkg/initdata"
)

const (
	maxFrameSize = 8 << 10
	authFrame    = "auth"
)

var pongFrame = []byte(`{"type":"pong"}`)

type authenticator interface {
	Authenticate(raw string) (domain.Identity, error)
}

type registry interface {
	Register(identity int64, c hub.Conn)
	Unregister(identity int64, c hub.Conn)
}

// Options tunes the transport. Zero values fall back to defaults.
type Options struct {
	AuthTimeout    time.Duration
	WriteTimeout   time.Duration
	PongWait       time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

type Handler struct {
	auth     authenticator
	registry registry
	opts     Options
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHandler(auth authenticator, reg registry, opts Options, log zerolog.Logger) *Handler {
	opts = opts.withDefaults()
	h := &Handler{
		auth:     auth,
		registry: reg,
		opts:     opts,
		log:      log.With().Str("comp", "ws").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeHTTP upgrades, authenticates from ?initData= or from the first frame,
// sends hello, registers the connection and blocks until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("upgrade failed")
		return
	}

	raw := r.URL.Query().Get("initData")
	if raw == "" {
		raw = h.readAuthFrame(wsConn)
	}
	id, err := h.auth.Authenticate(raw)
	if err != nil {
		h.log.Info().Str("reason", initdata.Reason(err)).Str("remote", r.RemoteAddr).Msg("push connection rejected")
		rejectUnauthorized(wsConn, h.opts.WriteTimeout)
		return
	}
	_ = wsConn.SetReadDeadline(time.Time{})

	log := h.log.With().Int64("telegram_user_id", id.TelegramUserID).Logger()
	c := newConn(wsConn, h.opts, log)
	hello, _ := json.Marshal(notification.Hello(id.TelegramUserID))
	_ = c.Send(hello)

	h.registry.Register(id.TelegramUserID, c)
	log.Debug().Msg("push connection registered")
	defer func() {
		h.registry.Unregister(id.TelegramUserID, c)
		c.close()
		log.Debug().Msg("push connection closed")
	}()

	go c.writePump()
	c.readPump()
}

// readAuthFrame accepts either the raw payload or {"type":"auth","initData":"..."}.
func (h *Handler) readAuthFrame(c *websocket.Conn) string {
	_ = c.SetReadDeadline(time.Now().Add(h.opts.AuthTimeout))
	c.SetReadLimit(maxFrameSize)
	_, msg, err := c.ReadMessage()
	if err != nil {
		return ""
	}
	msg = bytes.TrimSpace(msg)
	if len(msg) > 0 && msg[0] == '{' {
		var f struct {
			Type     string `json:"type"`
			InitData string `json:"initData"`
		}
		if json.Unmarshal(msg, &f) != nil || (f.Type != "" && f.Type != authFrame) {
			return ""
		}
		return f.InitData
	}
	return string(msg)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.opts.AllowedOrigins {
		if o == "*" || strings.EqualFold(strings.TrimSpace(o), origin) {
			return true
		}
	}
	return false
}

func rejectUnauthorized(c *websocket.Conn, timeout time.Duration) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized")
	_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout))
	_ = c.Close()
}

func isPing(msg []byte) bool {
	var f struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(msg, &f) == nil && f.Type == "ping"
}
