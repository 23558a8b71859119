package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// DefaultSendBuffer is the outbound queue length used when none is configured.
	DefaultSendBuffer = 128
)

// Close codes used by the server in addition to the RFC 6455 ones.
const (
	CloseSessionReplaced = 4001
	CloseUnauthorized    = 4401
)

var (
	ErrConnectionClosed = errors.New("realtime: connection closed")
	ErrBufferExceeded   = errors.New("realtime: connection buffer exceeded")
)

// Transport is the part of *websocket.Conn the writer needs.
type Transport interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// A connection carries the verified identity of its user and is safe for concurrent use.
type Connection struct {
	ID     string
	UserID string
	Role   chat.Role

	ws    Transport
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConnection constructs a Connection for a verified identity.
// bufferSize <= 0 uses DefaultSendBuffer.
func NewConnection(id chat.Identity, ws Transport, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	return &Connection{
		ID:     uuid.NewString(),
		UserID: id.UserID,
		Role:   id.Role,
		ws:     ws,
		send:   make(chan []byte, bufferSize),
		close:  make(chan struct{}),
	}
}

// Identity returns the {userId, role} pair attached at connect time.
func (c *Connection) Identity() chat.Identity {
	return chat.Identity{UserID: c.UserID, Role: c.Role}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrConnectionClosed
	default:
	}

	select {
	case <-c.close:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrBufferExceeded
	}
}

// Done is closed once the connection has been closed.
func (c *Connection) Done() <-chan struct{} {
	return c.close
}

// Close terminates the connection and stops the write loop.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
