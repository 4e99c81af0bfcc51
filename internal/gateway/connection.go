package gateway

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/protocol"
)

const (
	pingInterval   = 30 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Connection lifecycle states. A connection only routes messages once it
// reaches stateAuthenticated; frames read earlier are dropped, which makes
// a pre-registration message race structurally impossible.
const (
	stateConnecting int32 = iota
	stateAuthenticating
	stateAuthenticated
)

// Connection is a single WebSocket client session. It owns the transport
// exclusively: all writes go through the send channel or control frames.
type Connection struct {
	ID       string
	UserID   string
	Username string

	ws      *websocket.Conn
	send    chan []byte
	gateway *Gateway

	state   atomic.Int32
	isAlive atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(ws *websocket.Conn, gw *Gateway, userID, username string) *Connection {
	c := &Connection{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		gateway:  gw,
		done:     make(chan struct{}),
	}
	c.state.Store(stateConnecting)
	c.isAlive.Store(true)
	return c
}

// SendFrame serializes and queues a frame. Serialization failures are
// logged and the frame dropped; the connection itself stays healthy.
func (c *Connection) SendFrame(frame *protocol.Frame) {
	data, err := frame.Serialize()
	if err != nil {
		slog.Error("frame serialization failed, dropping message", "userID", c.UserID, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, dropping message", "userID", c.UserID, "connID", c.ID)
	}
}

// Close terminates the transport. Idempotent.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Connection) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ping clears the liveness flag's pending state and sends a ping control
// frame. Control frames may be written concurrently with the write pump.
func (c *Connection) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// readPump reads client frames and hands them to the gateway. It owns
// unregistration: whatever kills the transport funnels through here.
func (c *Connection) readPump() {
	defer func() {
		c.gateway.handleClose(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		c.isAlive.Store(true)
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("read error", "userID", c.UserID, "connID", c.ID, "error", err)
			}
			return
		}
		if c.state.Load() != stateAuthenticated {
			slog.Debug("ignoring message on unauthenticated connection", "connID", c.ID)
			continue
		}
		c.gateway.handleInbound(c, message)
	}
}

// writePump drains the send channel onto the socket.
func (c *Connection) writePump() {
	defer c.Close()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
