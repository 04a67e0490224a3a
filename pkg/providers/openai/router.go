// Package openai relays browser sessions to the OpenAI Realtime API. The
// client speaks a small typed protocol (audio/close in; audio/text/error/
// completion out); the vendor speaks realtime events keyed by type.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wandervoice/relay/pkg/relay"
)

// Config holds the OpenAI Realtime upstream settings.
type Config struct {
	// Endpoint is the realtime websocket URL.
	Endpoint string

	// APIKey authenticates the dial via a bearer header.
	APIKey string

	// Model selects the realtime deployment.
	Model string

	// Instructions is the system prompt for the session.
	Instructions string

	// Voice selects the TTS voice; supplied per session from the connect
	// path. Defaults to "alloy".
	Voice string

	// Temperature tunes response sampling.
	Temperature float64

	// Logger receives routing diagnostics. Defaults to slog.Default.
	Logger *slog.Logger

	// OnDecodeError observes dropped malformed frames.
	OnDecodeError func()
}

// Router implements relay.Router for the realtime dialog provider. One
// router serves one session; the voice parameter is fixed at connect time.
type Router struct {
	cfg Config
	log *slog.Logger
}

// New creates an OpenAI realtime router.
func New(cfg Config) *Router {
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.6
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg: cfg,
		log: logger.With("component", "providers.openai"),
	}
}

// Name implements relay.Router.
func (r *Router) Name() string {
	return "openai"
}

// Dial opens the realtime connection and configures the session before any
// client audio arrives: a session.update with the full session config,
// followed by an initial response.create.
func (r *Router) Dial(ctx context.Context, _ *relay.ClientSession) (*relay.UpstreamConnection, error) {
	url := fmt.Sprintf("%s?model=%s", r.cfg.Endpoint, r.cfg.Model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	upstream, err := relay.DialUpstream(ctx, r.Name(), url, header)
	if err != nil {
		return nil, err
	}

	update := event{
		Type: "session.update",
		Session: &sessionConfig{
			Modalities:        []string{"audio", "text"},
			Instructions:      r.cfg.Instructions,
			Voice:             r.cfg.Voice,
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			InputAudioTranscription: &transcriptionConfig{
				Model: "whisper-1",
			},
			Temperature: r.cfg.Temperature,
		},
	}
	if err := upstream.SendJSON(update); err != nil {
		_ = upstream.Close()
		return nil, fmt.Errorf("openai: send session.update: %w", err)
	}
	if err := upstream.SendJSON(event{Type: "response.create"}); err != nil {
		_ = upstream.Close()
		return nil, fmt.Errorf("openai: send response.create: %w", err)
	}

	return upstream, nil
}

// ClientFrame dispatches the client's typed messages. One audio chunk fans
// out into append, commit and response trigger, in that order; a close
// message ends the session gracefully.
func (r *Router) ClientFrame(f relay.Frame) relay.Routed {
	var msg clientMessage
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		r.dropMalformed("client", err)
		return relay.Routed{ToClient: []relay.Frame{errorFrame("invalid message")}}
	}

	switch msg.Type {
	case "audio":
		return relay.Routed{ToUpstream: []relay.Frame{
			relay.MustJSON(appendAudio{Type: "input_audio_buffer.append", Audio: msg.Data}),
			relay.MustJSON(event{Type: "input_audio_buffer.commit"}),
			relay.MustJSON(event{Type: "response.create"}),
		}}

	case "close":
		return relay.Routed{Close: true}

	default:
		r.log.Debug("unhandled client message type", "type", msg.Type)
		return relay.Drop
	}
}

// UpstreamFrame dispatches vendor events by their type tag. Unknown tags
// are dropped; the realtime stream carries many bookkeeping events the
// client has no use for.
func (r *Router) UpstreamFrame(f relay.Frame) relay.Routed {
	var ev serverEvent
	if err := json.Unmarshal(f.Data, &ev); err != nil {
		r.dropMalformed("upstream", err)
		return relay.Drop
	}

	switch ev.Type {
	case "error":
		message := ""
		if ev.Error != nil {
			message = ev.Error.Message
		}
		return relay.Routed{ToClient: []relay.Frame{errorFrame(message)}}

	case "response.audio.delta":
		return relay.Routed{ToClient: []relay.Frame{
			relay.MustJSON(clientDelta{Type: "audio", Data: ev.Delta}),
		}}

	case "response.text.delta":
		return relay.Routed{ToClient: []relay.Frame{
			relay.MustJSON(clientDelta{Type: "text", Data: ev.Delta}),
		}}

	case "response.done":
		return relay.Routed{ToClient: []relay.Frame{
			relay.MustJSON(completionFromResponse(ev.Response)),
		}}

	default:
		r.log.Debug("unhandled upstream event", "type", ev.Type)
		return relay.Drop
	}
}

// completionFromResponse extracts usage counters and the transcript from a
// finished response. Absent fields fall back to zero values rather than
// failing the decode.
func completionFromResponse(resp *serverResponse) completion {
	c := completion{Type: "completion"}
	if resp == nil {
		return c
	}

	if resp.Usage != nil {
		c.TotalTokens = resp.Usage.TotalTokens
		c.InputTokens = resp.Usage.InputTokens
		c.OutputTokens = resp.Usage.OutputTokens
	}

	if len(resp.Output) > 0 && len(resp.Output[0].Content) > 0 {
		c.Transcript = resp.Output[0].Content[0].Transcript
	}

	return c
}

func errorFrame(message string) relay.Frame {
	return relay.MustJSON(clientError{Type: "error", Message: message})
}

func (r *Router) dropMalformed(side string, err error) {
	r.log.Warn("dropping malformed frame", "side", side, "error", err)
	if r.cfg.OnDecodeError != nil {
		r.cfg.OnDecodeError()
	}
}

var _ relay.Router = (*Router)(nil)
