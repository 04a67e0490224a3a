package relay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	fasthttpws "github.com/fasthttp/websocket"
	"github.com/gorilla/websocket"
)

// readResult is one queued outcome of fakeConn.ReadMessage.
type readResult struct {
	msgType int
	data    []byte
	err     error
}

// fakeConn is an in-memory Conn. Reads drain a queue and block until the
// next entry or until the conn is closed; writes are recorded.
type fakeConn struct {
	reads chan readResult

	mu      sync.Mutex
	written []Frame
	closed  bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:   make(chan readResult, 32),
		closeCh: make(chan struct{}),
	}
}

func (c *fakeConn) queueText(s string) {
	c.reads <- readResult{msgType: websocket.TextMessage, data: []byte(s)}
}

func (c *fakeConn) queueBinary(b []byte) {
	c.reads <- readResult{msgType: websocket.BinaryMessage, data: b}
}

func (c *fakeConn) queuePeerClose() {
	c.reads <- readResult{err: &websocket.CloseError{Code: websocket.CloseNormalClosure}}
}

func (c *fakeConn) queueError(err error) {
	c.reads <- readResult{err: err}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case r := <-c.reads:
		return r.msgType, r.data, r.err
	case <-c.closeCh:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) WriteMessage(msgType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("use of closed connection")
	}
	c.written = append(c.written, Frame{Type: msgType, Data: append([]byte(nil), data...)})
	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.closeCh)
	})
	return nil
}

func (c *fakeConn) frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Frame, len(c.written))
	copy(out, c.written)
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitFrames polls until at least n frames have been written or the timeout
// elapses.
func (c *fakeConn) waitFrames(t *testing.T, n int) []Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.frames(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	got := c.frames()
	t.Fatalf("timed out waiting for %d frames, got %d", n, len(got))
	return got
}

func TestClientSessionRead(t *testing.T) {
	t.Run("delivers frames", func(t *testing.T) {
		conn := newFakeConn()
		conn.queueText(`{"hello":"world"}`)
		client := NewClientSession("s1", conn)

		f, err := client.Read()
		if err != nil {
			t.Fatalf("Read returned error: %v", err)
		}
		if !f.IsText() || string(f.Data) != `{"hello":"world"}` {
			t.Errorf("unexpected frame: type=%d data=%s", f.Type, f.Data)
		}
	})

	t.Run("peer close maps to ErrClientGone", func(t *testing.T) {
		conn := newFakeConn()
		conn.queuePeerClose()
		client := NewClientSession("s1", conn)

		if _, err := client.Read(); !errors.Is(err, ErrClientGone) {
			t.Errorf("expected ErrClientGone, got %v", err)
		}
	})

	t.Run("transport failure maps to TransportError", func(t *testing.T) {
		conn := newFakeConn()
		conn.queueError(errors.New("connection reset"))
		client := NewClientSession("s1", conn)

		_, err := client.Read()
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if te.Side != "client" || te.Op != "read" {
			t.Errorf("unexpected error detail: side=%s op=%s", te.Side, te.Op)
		}
	})

	t.Run("read after close returns ErrClosed", func(t *testing.T) {
		conn := newFakeConn()
		client := NewClientSession("s1", conn)
		if err := client.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
		if _, err := client.Read(); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestClientSessionClose(t *testing.T) {
	conn := newFakeConn()
	client := NewClientSession("s1", conn)

	if err := client.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
	if got := client.State(); got != StateClosed {
		t.Errorf("state = %v, want %v", got, StateClosed)
	}
	if !conn.isClosed() {
		t.Error("underlying conn not closed")
	}
}

func TestUpstreamConnectionRead(t *testing.T) {
	t.Run("peer close maps to ErrUpstreamGone", func(t *testing.T) {
		conn := newFakeConn()
		conn.queuePeerClose()
		u := NewUpstream("openai", conn)

		if _, err := u.Read(); !errors.Is(err, ErrUpstreamGone) {
			t.Errorf("expected ErrUpstreamGone, got %v", err)
		}
	})

	t.Run("send after close returns ErrClosed", func(t *testing.T) {
		conn := newFakeConn()
		u := NewUpstream("openai", conn)
		_ = u.Close()

		if err := u.Send(Text([]byte("x"))); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestIsPeerClose(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorilla normal closure", &websocket.CloseError{Code: websocket.CloseNormalClosure}, true},
		{"gorilla going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, true},
		{"gorilla no status", &websocket.CloseError{Code: websocket.CloseNoStatusReceived}, true},
		{"gorilla abnormal closure", &websocket.CloseError{Code: websocket.CloseAbnormalClosure}, false},
		{"fasthttp normal closure", &fasthttpws.CloseError{Code: fasthttpws.CloseNormalClosure}, true},
		{"fasthttp going away", &fasthttpws.CloseError{Code: fasthttpws.CloseGoingAway}, true},
		{"fasthttp protocol error", &fasthttpws.CloseError{Code: fasthttpws.CloseProtocolError}, false},
		{"wrapped close error", fmt.Errorf("read: %w", &websocket.CloseError{Code: websocket.CloseNormalClosure}), true},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPeerClose(tt.err); got != tt.want {
				t.Errorf("isPeerClose(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNormalClose(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"client gone", ErrClientGone, true},
		{"upstream gone", ErrUpstreamGone, true},
		{"closed", ErrClosed, true},
		{"wrapped client gone", fmt.Errorf("pump: %w", ErrClientGone), true},
		{"transport error", NewTransportError("client", "read", errors.New("reset")), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNormalClose(tt.err); got != tt.want {
				t.Errorf("IsNormalClose(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConnectErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectError("gemini", cause, 401)

	if !errors.Is(err, cause) {
		t.Error("ConnectError does not unwrap to its cause")
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("empty error message")
	}
	for _, want := range []string{"gemini", "401"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}
