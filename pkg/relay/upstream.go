package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// upstreamHandshakeTimeout bounds the websocket dial to a vendor endpoint.
const upstreamHandshakeTimeout = 10 * time.Second

// UpstreamConnection wraps a single duplex connection to one vendor's
// realtime endpoint.
type UpstreamConnection struct {
	provider string
	conn     Conn

	idleTimeout time.Duration

	writeMu sync.Mutex

	mu        sync.Mutex
	state     State
	closeOnce sync.Once
}

// DialUpstream opens a websocket connection to a vendor endpoint.
// Authentication travels in the URL query or header, supplied by the caller.
func DialUpstream(ctx context.Context, provider, url string, header http.Header) (*UpstreamConnection, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: upstreamHandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, NewConnectError(provider, err, status)
	}

	return NewUpstream(provider, conn), nil
}

// NewUpstream wraps an already-established upstream transport.
func NewUpstream(provider string, conn Conn) *UpstreamConnection {
	return &UpstreamConnection{
		provider: provider,
		conn:     conn,
		state:    StateOpen,
	}
}

// Provider returns the vendor name this connection targets.
func (u *UpstreamConnection) Provider() string {
	return u.provider
}

// State returns the current lifecycle state.
func (u *UpstreamConnection) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// SetIdleTimeout bounds how long Read waits for the next upstream frame.
// Zero disables the bound.
func (u *UpstreamConnection) SetIdleTimeout(d time.Duration) {
	u.idleTimeout = d
}

// Read blocks until the next frame from the vendor. A clean remote close is
// reported as ErrUpstreamGone; anything else mid-stream is a TransportError.
func (u *UpstreamConnection) Read() (Frame, error) {
	if u.State() != StateOpen {
		return Frame{}, ErrClosed
	}

	if u.idleTimeout > 0 {
		_ = u.conn.SetReadDeadline(time.Now().Add(u.idleTimeout))
	}

	msgType, data, err := u.conn.ReadMessage()
	if err != nil {
		if u.State() != StateOpen {
			return Frame{}, ErrClosed
		}
		if isPeerClose(err) {
			return Frame{}, ErrUpstreamGone
		}
		return Frame{}, NewTransportError("upstream", "read", err)
	}

	return Frame{Type: msgType, Data: data}, nil
}

// Send writes one frame to the vendor.
func (u *UpstreamConnection) Send(f Frame) error {
	if u.State() != StateOpen {
		return ErrClosed
	}

	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	if err := u.conn.WriteMessage(f.Type, f.Data); err != nil {
		return NewTransportError("upstream", "write", err)
	}
	return nil
}

// SendJSON marshals v and sends it as a text frame.
func (u *UpstreamConnection) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return u.Send(Text(data))
}

// Close releases the upstream transport. Safe to call more than once.
func (u *UpstreamConnection) Close() error {
	var err error
	u.closeOnce.Do(func() {
		u.mu.Lock()
		u.state = StateClosing
		u.mu.Unlock()

		err = u.conn.Close()

		u.mu.Lock()
		u.state = StateClosed
		u.mu.Unlock()
	})
	return err
}
