package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionState is the lifecycle of one relay session.
type SessionState int32

const (
	SessionIdle SessionState = iota
	SessionConnecting
	SessionActive
	SessionClosing
	SessionClosed
)

// String returns the state name for logging.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Directions of frame travel, used for logging and metrics labels.
const (
	DirClientToUpstream = "client_to_upstream"
	DirUpstreamToClient = "upstream_to_client"
)

// Session orchestrates one client-upstream pairing. It establishes the
// upstream connection through the provider router, runs one forwarding
// goroutine per direction, and guarantees that when either direction
// terminates both transports are released together.
type Session struct {
	id     string
	client *ClientSession
	router Router
	logger *slog.Logger

	idleTimeout time.Duration

	// onForward, when set, observes forwarded frame counts per direction.
	onForward func(direction string, n int)

	mu       sync.Mutex
	state    SessionState
	upstream *UpstreamConnection

	// done is the explicit cancellation signal shared by both forwarding
	// goroutines. Closed exactly once, at the start of teardown.
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithLogger attaches a logger to the session.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIdleTimeout bounds how long either side may stay silent before the
// session is torn down. Zero disables the bound.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.idleTimeout = d }
}

// WithForwardHook observes forwarded frame counts per direction.
func WithForwardHook(fn func(direction string, n int)) SessionOption {
	return func(s *Session) { s.onForward = fn }
}

// NewSession binds one client session to a provider router. The upstream
// connection is established by Start.
func NewSession(id string, client *ClientSession, router Router, opts ...SessionOption) *Session {
	s := &Session{
		id:     id,
		client: client,
		router: router,
		logger: slog.Default(),
		state:  SessionIdle,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", id, "provider", router.Name())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when teardown begins. Both transports are released and
// State reports SessionClosed once Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send forwards a frame to the session's client. Used by the registry for
// targeted delivery.
func (s *Session) Send(f Frame) error {
	return s.client.Send(f)
}

// Start establishes the upstream connection. On failure the client
// transport is closed, the session transitions straight to SessionClosed,
// and the error is returned; the session must not be registered or Run.
func (s *Session) Start(ctx context.Context) error {
	s.setState(SessionConnecting)

	upstream, err := s.router.Dial(ctx, s.client)
	if err != nil {
		s.logger.Error("upstream connect failed", "error", err)
		_ = s.client.SendJSON(map[string]string{
			"type":    "error",
			"message": "upstream connection failed",
		})
		_ = s.client.Close()
		s.setState(SessionClosed)
		return err
	}

	if s.idleTimeout > 0 {
		s.client.SetIdleTimeout(s.idleTimeout)
		upstream.SetIdleTimeout(s.idleTimeout)
	}

	s.mu.Lock()
	s.upstream = upstream
	s.state = SessionActive
	s.mu.Unlock()

	s.logger.Info("session active")
	return nil
}

// Run drives the two forwarding directions until either terminates, then
// tears the session down. It blocks until both transports are Closed and
// both goroutines have been joined.
func (s *Session) Run() {
	if s.State() != SessionActive {
		return
	}

	s.wg.Add(2)
	go s.pumpClient()
	go s.pumpUpstream()
	s.wg.Wait()

	// Teardown has already closed both transports; record the terminal state.
	s.setState(SessionClosed)
	s.logger.Info("session closed")
}

// Close triggers teardown from outside the forwarding goroutines.
// Idempotent.
func (s *Session) Close() {
	s.teardown()
}

// teardown closes both transports exactly once. Closing either conn
// unblocks the sibling goroutine's pending read, so no task is leaked.
// Both closes are attempted unconditionally.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.state != SessionClosed {
			s.state = SessionClosing
		}
		upstream := s.upstream
		s.mu.Unlock()

		close(s.done)

		if err := s.client.Close(); err != nil {
			s.logger.Debug("client close", "error", err)
		}
		if upstream != nil {
			if err := upstream.Close(); err != nil {
				s.logger.Debug("upstream close", "error", err)
			}
		}
	})
}

// pumpClient forwards client frames toward the upstream.
func (s *Session) pumpClient() {
	defer s.wg.Done()
	defer s.teardown()

	for {
		f, err := s.client.Read()
		if err != nil {
			s.logTerminal("client", err)
			return
		}

		routed := s.router.ClientFrame(f)
		if !s.forward(routed, DirClientToUpstream) {
			return
		}
		if routed.Close {
			s.logger.Info("client requested close")
			return
		}
	}
}

// pumpUpstream forwards upstream frames toward the client.
func (s *Session) pumpUpstream() {
	defer s.wg.Done()
	defer s.teardown()

	for {
		f, err := s.upstream.Read()
		if err != nil {
			s.logTerminal("upstream", err)
			return
		}

		routed := s.router.UpstreamFrame(f)
		if !s.forward(routed, DirUpstreamToClient) {
			return
		}
		if routed.Close {
			s.logger.Info("upstream requested close")
			return
		}
	}
}

// forward delivers the routed frames, in order, to their targets. Returns
// false when a write fails and the session must terminate.
func (s *Session) forward(routed Routed, direction string) bool {
	for _, f := range routed.ToUpstream {
		if err := s.upstream.Send(f); err != nil {
			s.logTerminal("upstream", err)
			return false
		}
	}
	for _, f := range routed.ToClient {
		if err := s.client.Send(f); err != nil {
			s.logTerminal("client", err)
			return false
		}
	}

	if s.onForward != nil {
		if n := len(routed.ToUpstream) + len(routed.ToClient); n > 0 {
			s.onForward(direction, n)
		}
	}
	return true
}

// logTerminal records why a direction ended. A clean disconnect is routine;
// a transport failure is not. Either way the session tears down.
func (s *Session) logTerminal(side string, err error) {
	if IsNormalClose(err) {
		s.logger.Info("peer disconnected", "side", side)
		return
	}
	s.logger.Error("transport failure", "side", side, "error", err)
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
