package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn wraps a gorilla connection behind a write mutex. The read loop,
// the connect hook, and the hub (fed by the sweep worker) can all write
// to the same socket; gorilla permits only one writer at a time, so
// every outbound frame goes through WriteTyped's lock.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// NewConn wraps an upgraded connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed response payload. Safe for
// concurrent use.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// WriteSuccess sends a typed SuccessResponse.
func (c *Conn) WriteSuccess(data interface{}) error {
	return c.WriteTyped(SuccessResponse{
		Event: EventSuccess,
		Data:  data,
	})
}

// ReadMessage reads the next message, refreshing the read deadline.
// Single-reader only, like the underlying connection.
func (c *Conn) ReadMessage() ([]byte, error) {
	c.ws.SetReadDeadline(time.Now().Add(5 * time.Minute))
	_, raw, err := c.ws.ReadMessage()
	return raw, err
}

// Close closes the underlying socket. Gorilla documents Close as safe
// to call concurrently with the write methods, so no lock is taken;
// a writer blocked mid-frame is unblocked by the close.
func (c *Conn) Close() error {
	return c.ws.Close()
}
