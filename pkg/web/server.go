// Package web exposes the relay over HTTP: one websocket endpoint per
// provider plus the thin REST pass-through surface.
package web

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/wandervoice/relay/internal/config"
	"github.com/wandervoice/relay/internal/httpc"
	"github.com/wandervoice/relay/internal/log"
	"github.com/wandervoice/relay/internal/metrics"
	"github.com/wandervoice/relay/pkg/providers/elevenlabs"
	"github.com/wandervoice/relay/pkg/providers/gemini"
	"github.com/wandervoice/relay/pkg/providers/openai"
	"github.com/wandervoice/relay/pkg/relay"
	"github.com/wandervoice/relay/pkg/store"
)

// Server is the client-facing application server.
type Server struct {
	app *fiber.App
	cfg *config.Config

	registry  *relay.Registry
	metrics   *metrics.Metrics
	store     store.Store
	elevenAPI *elevenlabs.Client

	startTime time.Time
}

// NewServer wires the fiber app, the session registry and the REST proxy.
func NewServer(cfg *config.Config, st store.Store, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		registry:  relay.NewRegistry(),
		metrics:   m,
		store:     st,
		elevenAPI: elevenlabs.NewClient(cfg.Providers.ElevenLabs.APIKey, cfg.Providers.ElevenLabs.APIBase, httpc.Client),
		startTime: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voice-relay",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Use(s.countRequests)

	app.Get("/healthz", s.handleHealth)

	// WebSocket upgrade middleware
	upgrade := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	app.Use("/gemini/ws", upgrade)
	app.Get("/gemini/ws", websocket.New(s.handleGeminiWS))

	app.Use("/chatgpt/ws", upgrade)
	app.Get("/chatgpt/ws/:sessionId/:voice", websocket.New(s.handleChatGPTWS))

	app.Use("/elevenlabs/ws", upgrade)
	app.Get("/elevenlabs/ws", websocket.New(s.handleElevenLabsWS))

	// Pass-through REST surface
	app.Post("/chatgpt/conversation", s.handleAppendConversation)
	app.Post("/chatgpt/create-conversation-id", s.handleCreateConversationID)

	app.Post("/elevenlabs/agents", s.handleCreateAgent)
	app.Get("/elevenlabs/agents", s.handleListAgents)
	app.Get("/elevenlabs/agents/:id", s.handleGetAgent)
	app.Get("/elevenlabs/conversations", s.handleListConversations)
	app.Get("/elevenlabs/conversations/:id", s.handleGetConversation)

	s.app = app
	return s
}

// Start begins serving on the configured address. Blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Address, s.cfg.Server.Port)
	log.Info("relay server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server and tears down active sessions.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Registry exposes the session registry, mainly for tests and health.
func (s *Server) Registry() *relay.Registry {
	return s.registry
}

// countRequests records HTTP request metrics after the handler runs. The
// endpoint label is the route template, not the request path, so path
// parameters cannot inflate label cardinality.
func (s *Server) countRequests(c *fiber.Ctx) error {
	err := c.Next()
	s.metrics.RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(c.Response().StatusCode()))
	return err
}

// handleGeminiWS relays one multimodal session.
func (s *Server) handleGeminiWS(c *websocket.Conn) {
	cfg := s.cfg.Providers.Gemini
	router := gemini.New(gemini.Config{
		Endpoint:      cfg.Endpoint,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		Logger:        log.L(),
		OnDecodeError: func() { s.metrics.RecordDecodeError("gemini") },
	})
	s.runRelay(c, uuid.NewString(), router)
}

// handleChatGPTWS relays one realtime dialog session. The session id and
// voice come from the connect path and parametrize the upstream handshake.
func (s *Server) handleChatGPTWS(c *websocket.Conn) {
	id := c.Params("sessionId")
	if id == "" {
		id = uuid.NewString()
	}

	cfg := s.cfg.Providers.OpenAI
	router := openai.New(openai.Config{
		Endpoint:      cfg.Endpoint,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		Instructions:  cfg.Instructions,
		Voice:         c.Params("voice"),
		Temperature:   cfg.Temperature,
		Logger:        log.L(),
		OnDecodeError: func() { s.metrics.RecordDecodeError("openai") },
	})
	s.runRelay(c, id, router)
}

// handleElevenLabsWS relays one speech-agent session verbatim.
func (s *Server) handleElevenLabsWS(c *websocket.Conn) {
	cfg := s.cfg.Providers.ElevenLabs
	router := elevenlabs.New(elevenlabs.Config{
		WSEndpoint: cfg.WSEndpoint,
		APIBase:    cfg.APIBase,
		APIKey:     cfg.APIKey,
		AgentID:    cfg.AgentID,
		Logger:     log.L(),
	})
	s.runRelay(c, uuid.NewString(), router)
}

// runRelay drives one client connection through the full session lifecycle:
// connect upstream, register, pump, unregister. A failed upstream connect
// closes the client without ever registering the session.
func (s *Server) runRelay(conn relay.Conn, id string, router relay.Router) {
	provider := router.Name()
	client := relay.NewClientSession(id, conn)

	sess := relay.NewSession(id, client, router,
		relay.WithLogger(log.L()),
		relay.WithIdleTimeout(s.cfg.Session.IdleTimeout),
		relay.WithForwardHook(func(direction string, n int) {
			s.metrics.RecordFramesForwarded(provider, direction, n)
		}),
	)

	if err := sess.Start(context.Background()); err != nil {
		s.metrics.RecordConnectFailure(provider)
		return
	}

	s.metrics.RecordSessionStart(provider)
	started := time.Now()

	s.registry.Register(id, sess)
	defer func() {
		// A reconnect may have reused the id; only drop our own entry.
		s.registry.UnregisterIf(id, sess)
		s.metrics.RecordSessionEnd(provider, time.Since(started).Seconds())
	}()

	sess.Run()
}
