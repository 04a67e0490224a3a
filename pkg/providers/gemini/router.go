// Package gemini relays browser sessions to the Gemini Live API. The client
// speaks the multimodal envelope (realtime_input media chunks in, plain
// text/audio frames out); the vendor speaks the BidiGenerateContent wire
// protocol.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wandervoice/relay/pkg/relay"
)

// MIME types the multimodal relay forwards. Anything else is dropped.
const (
	mimeAudioPCM  = "audio/pcm"
	mimeImageJPEG = "image/jpeg"
)

// Config holds the Gemini Live upstream settings.
type Config struct {
	// Endpoint is the BidiGenerateContent websocket URL.
	Endpoint string

	// APIKey authenticates the dial via the key query parameter.
	APIKey string

	// Model is filled into the setup frame when the client omits one.
	Model string

	// Logger receives routing diagnostics. Defaults to slog.Default.
	Logger *slog.Logger

	// OnDecodeError observes dropped malformed frames.
	OnDecodeError func()
}

// Router implements relay.Router for the Gemini Live provider.
type Router struct {
	cfg Config
	log *slog.Logger
}

// New creates a Gemini router. One router serves one session.
func New(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg: cfg,
		log: logger.With("component", "providers.gemini"),
	}
}

// Name implements relay.Router.
func (r *Router) Name() string {
	return "gemini"
}

// Dial reads the client's setup frame, opens the Live API connection, and
// transmits the setup envelope before any media flows.
func (r *Router) Dial(ctx context.Context, client *relay.ClientSession) (*relay.UpstreamConnection, error) {
	f, err := client.Read()
	if err != nil {
		return nil, fmt.Errorf("gemini: read setup frame: %w", err)
	}

	var envelope setupEnvelope
	if err := json.Unmarshal(f.Data, &envelope); err != nil {
		return nil, fmt.Errorf("gemini: decode setup frame: %w", err)
	}

	setup := envelope.Setup
	if setup == nil {
		setup = map[string]any{}
	}
	if _, ok := setup["model"]; !ok {
		setup["model"] = r.cfg.Model
	}

	url := fmt.Sprintf("%s?key=%s", r.cfg.Endpoint, r.cfg.APIKey)
	upstream, err := relay.DialUpstream(ctx, r.Name(), url, nil)
	if err != nil {
		return nil, err
	}

	if err := upstream.SendJSON(setupEnvelope{Setup: setup}); err != nil {
		_ = upstream.Close()
		return nil, fmt.Errorf("gemini: send setup: %w", err)
	}

	return upstream, nil
}

// ClientFrame unpacks realtime_input media chunks and forwards each chunk
// upstream as its own frame, preserving order.
func (r *Router) ClientFrame(f relay.Frame) relay.Routed {
	var input clientInput
	if err := json.Unmarshal(f.Data, &input); err != nil {
		r.dropMalformed("client", err)
		return relay.Drop
	}

	if input.RealtimeInput == nil {
		return relay.Drop
	}

	out := make([]relay.Frame, 0, len(input.RealtimeInput.MediaChunks))
	for _, chunk := range input.RealtimeInput.MediaChunks {
		switch chunk.MimeType {
		case mimeAudioPCM, mimeImageJPEG:
			frame, err := relay.JSON(clientInput{
				RealtimeInput: &realtimeInput{MediaChunks: []mediaChunk{chunk}},
			})
			if err != nil {
				r.dropMalformed("client", err)
				continue
			}
			out = append(out, frame)
		default:
			r.log.Debug("dropping unsupported media chunk", "mime_type", chunk.MimeType)
		}
	}

	return relay.Routed{ToUpstream: out}
}

// UpstreamFrame re-wraps model turn parts as individual client frames and
// consumes protocol-level signals (setupComplete, turnComplete) without
// forwarding them.
func (r *Router) UpstreamFrame(f relay.Frame) relay.Routed {
	var msg serverMessage
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		r.dropMalformed("upstream", err)
		return relay.Drop
	}

	if msg.SetupComplete != nil {
		r.log.Debug("session setup complete")
		return relay.Drop
	}

	if msg.ServerContent == nil {
		r.log.Warn("unhandled server message", "payload", string(f.Data))
		return relay.Drop
	}

	var out []relay.Frame
	if turn := msg.ServerContent.ModelTurn; turn != nil {
		for _, part := range turn.Parts {
			switch {
			case part.Text != nil:
				out = append(out, relay.MustJSON(clientText{Text: *part.Text}))
			case part.InlineData != nil:
				// Inline audio arrives base64-encoded on the wire already.
				out = append(out, relay.MustJSON(clientAudio{Audio: part.InlineData.Data}))
			}
		}
	}

	if msg.ServerContent.TurnComplete {
		r.log.Debug("turn complete")
	}

	return relay.Routed{ToClient: out}
}

func (r *Router) dropMalformed(side string, err error) {
	r.log.Warn("dropping malformed frame", "side", side, "error", err)
	if r.cfg.OnDecodeError != nil {
		r.cfg.OnDecodeError()
	}
}

var _ relay.Router = (*Router)(nil)
