package relay

import (
	"context"
)

// Router is the per-provider policy for one session: it opens the upstream
// connection (including any handshake frames the vendor requires) and maps
// inbound frames to outbound frames in both directions.
//
// Routers never let a malformed frame abort the session: decode failures are
// logged and dropped (or answered with an error frame) inside the router,
// and routing continues.
type Router interface {
	// Name identifies the provider for logging and metrics.
	Name() string

	// Dial establishes the upstream connection for a newly accepted client
	// session. It may consume initial client frames (e.g. a setup message)
	// to parametrize the handshake, and must transmit any provider config
	// frames before returning.
	Dial(ctx context.Context, client *ClientSession) (*UpstreamConnection, error)

	// ClientFrame maps one inbound client frame.
	ClientFrame(f Frame) Routed

	// UpstreamFrame maps one inbound upstream frame.
	UpstreamFrame(f Frame) Routed
}
