// Package elevenlabs relays browser sessions to the ElevenLabs Agents
// Platform. The websocket leg is a pure pass-through: the browser speaks
// the ConvAI protocol directly and the relay only carries frames. The REST
// surface (agent and conversation management) is proxied by Client.
package elevenlabs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/wandervoice/relay/pkg/relay"
)

// Config holds the ElevenLabs upstream settings.
type Config struct {
	// WSEndpoint is the ConvAI conversation websocket URL.
	WSEndpoint string

	// APIBase is the REST API base URL.
	APIBase string

	// APIKey authenticates both legs via the xi-api-key header.
	APIKey string

	// AgentID selects the conversational agent.
	AgentID string

	// Logger receives routing diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Router implements relay.Router for the speech-agent provider.
type Router struct {
	cfg Config
	log *slog.Logger
}

// New creates an ElevenLabs pass-through router.
func New(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg: cfg,
		log: logger.With("component", "providers.elevenlabs"),
	}
}

// Name implements relay.Router.
func (r *Router) Name() string {
	return "elevenlabs"
}

// Dial opens the ConvAI conversation socket for the configured agent.
func (r *Router) Dial(ctx context.Context, _ *relay.ClientSession) (*relay.UpstreamConnection, error) {
	wsURL, err := url.Parse(r.cfg.WSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: invalid endpoint: %w", err)
	}

	q := wsURL.Query()
	q.Set("agent_id", r.cfg.AgentID)
	wsURL.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("xi-api-key", r.cfg.APIKey)

	return relay.DialUpstream(ctx, r.Name(), wsURL.String(), header)
}

// ClientFrame forwards every client frame verbatim.
func (r *Router) ClientFrame(f relay.Frame) relay.Routed {
	return relay.Routed{ToUpstream: []relay.Frame{f}}
}

// UpstreamFrame forwards every upstream frame verbatim.
func (r *Router) UpstreamFrame(f relay.Frame) relay.Routed {
	return relay.Routed{ToClient: []relay.Frame{f}}
}

var _ relay.Router = (*Router)(nil)
