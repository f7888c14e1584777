package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/hub"
)

// ErrSlowConsumer is returned when a connection's send queue is full. The
// connection is closed; the client is expected to reconnect.
var ErrSlowConsumer = errors.New("push connection send queue full")

// Conn is one authenticated push connection. Frames queued with Send are
// written in order by a single writer goroutine.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	writeTimeout time.Duration
	pongWait     time.Duration
	pingInterval time.Duration
	log          zerolog.Logger
}

func newConn(c *websocket.Conn, opts Options, log zerolog.Logger) *Conn {
	return &Conn{
		ws:           c,
		send:         make(chan []byte, opts.SendBuffer),
		done:         make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
		pongWait:     opts.PongWait,
		pingInterval: opts.PongWait * 9 / 10,
		log:          log,
	}
}

// Send queues frame without blocking.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.done:
		return hub.ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return hub.ErrConnClosed
	default:
		c.log.Warn().Int("queued", len(c.send)).Msg("send queue full, closing connection")
		c.close()
		return ErrSlowConsumer
	}
}

// close stops the writer and tears down the socket, which also ends the reader.
func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump consumes client frames until the connection fails. Only an
// application-level {"type":"ping"} is answered; other frames are ignored.
func (c *Conn) readPump() {
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("connection closed unexpectedly")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		if isPing(msg) {
			_ = c.Send(pongFrame)
		}
	}
}
