package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one live realtime transport session. The hub only ever talks to
// this interface, so tests can capture deliveries without opening sockets.
type Client interface {
	ID() string
	Write(payload []byte) error
	Close() error
}

// ConnInfo carries identity and tracing context captured at handshake time.
type ConnInfo struct {
	ConnID      string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// wsClient wraps a gorilla connection. Writes are serialized because the hub
// may fan out to the same connection from multiple dispatching goroutines.
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSClient(id string, conn *websocket.Conn) *wsClient {
	return &wsClient{id: id, conn: conn}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsClient) Close() error {
	return c.conn.Close()
}
