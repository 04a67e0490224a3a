package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	fasthttpws "github.com/fasthttp/websocket"
	"github.com/gorilla/websocket"
)

// ClientSession wraps the duplex connection to one connected client. It is
// owned exclusively by the Session that pairs it with an upstream.
type ClientSession struct {
	id   string
	conn Conn

	// idleTimeout, when non-zero, bounds how long Read blocks waiting for
	// the next frame.
	idleTimeout time.Duration

	// writeMu serializes writes; reads stay single-goroutine by contract.
	writeMu sync.Mutex

	mu        sync.Mutex
	state     State
	closeOnce sync.Once
}

// NewClientSession wraps an already-accepted client transport. The session
// enters StateOpen immediately.
func NewClientSession(id string, conn Conn) *ClientSession {
	return &ClientSession{
		id:    id,
		conn:  conn,
		state: StateOpen,
	}
}

// ID returns the session identifier.
func (c *ClientSession) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *ClientSession) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetIdleTimeout bounds how long Read waits for the next client frame.
// Zero disables the bound.
func (c *ClientSession) SetIdleTimeout(d time.Duration) {
	c.idleTimeout = d
}

// Read blocks until the next inbound frame. A clean client disconnect is
// reported as ErrClientGone; anything else mid-stream is a TransportError.
func (c *ClientSession) Read() (Frame, error) {
	if c.State() != StateOpen {
		return Frame{}, ErrClosed
	}

	if c.idleTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
	}

	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		if c.State() != StateOpen {
			return Frame{}, ErrClosed
		}
		if isPeerClose(err) {
			return Frame{}, ErrClientGone
		}
		return Frame{}, NewTransportError("client", "read", err)
	}

	return Frame{Type: msgType, Data: data}, nil
}

// Send writes one frame to the client.
func (c *ClientSession) Send(f Frame) error {
	if c.State() != StateOpen {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(f.Type, f.Data); err != nil {
		return NewTransportError("client", "write", err)
	}
	return nil
}

// SendJSON marshals v and sends it as a text frame.
func (c *ClientSession) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(Text(data))
}

// Close releases the client transport. Safe to call more than once.
func (c *ClientSession) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosing
		c.mu.Unlock()

		err = c.conn.Close()

		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
	})
	return err
}

// isPeerClose reports whether err is an orderly websocket close from the
// peer. The client side may arrive on either websocket implementation
// depending on which server accepted it.
func isPeerClose(err error) bool {
	var gc *websocket.CloseError
	if errors.As(err, &gc) {
		return gc.Code == websocket.CloseNormalClosure ||
			gc.Code == websocket.CloseGoingAway ||
			gc.Code == websocket.CloseNoStatusReceived
	}

	var fc *fasthttpws.CloseError
	if errors.As(err, &fc) {
		return fc.Code == fasthttpws.CloseNormalClosure ||
			fc.Code == fasthttpws.CloseGoingAway ||
			fc.Code == fasthttpws.CloseNoStatusReceived
	}

	return false
}
