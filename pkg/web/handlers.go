package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wandervoice/relay/internal/log"
	"github.com/wandervoice/relay/pkg/providers/elevenlabs"
	"github.com/wandervoice/relay/pkg/store"
)

// handleHealth reports liveness plus a couple of cheap gauges.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "ok",
		"uptime_seconds":  int(time.Since(s.startTime).Seconds()),
		"active_sessions": s.registry.Len(),
	})
}

type conversationRequest struct {
	ConversationID string `json:"conversation_id"`
	UserMessage    string `json:"user_message"`
	AgentMessage   string `json:"agent_message"`
	InputTokens    int    `json:"input_tokens"`
	OutputTokens   int    `json:"output_tokens"`
	TotalTokens    int    `json:"total_tokens"`
	Transcript     string `json:"transcript"`
}

// handleAppendConversation persists one exchange of a dialog session.
func (s *Server) handleAppendConversation(c *fiber.Ctx) error {
	var req conversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ConversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "conversation_id is required"})
	}

	rec := store.Record{
		ConversationID: req.ConversationID,
		UserMessage:    req.UserMessage,
		AgentMessage:   req.AgentMessage,
		Timestamp:      time.Now().UTC(),
		InputTokens:    req.InputTokens,
		OutputTokens:   req.OutputTokens,
		TotalTokens:    req.TotalTokens,
		Transcript:     req.Transcript,
	}

	id, err := s.store.Append(c.Context(), rec)
	s.metrics.RecordStoreAppend(err)
	if err != nil {
		log.Error("conversation append failed", "conversation_id", req.ConversationID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store conversation"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     id,
		"record": rec,
	})
}

// handleCreateConversationID mints a fresh conversation identifier so the
// browser can correlate websocket frames with stored exchanges.
func (s *Server) handleCreateConversationID(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"conversation_id": uuid.NewString()})
}

// proxyResult writes a raw upstream JSON payload, mirroring upstream HTTP
// errors where the vendor reported one.
func proxyResult(c *fiber.Ctx, body []byte, err error) error {
	if err != nil {
		var apiErr *elevenlabs.APIError
		if errors.As(err, &apiErr) {
			c.Status(apiErr.StatusCode)
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(apiErr.Body)
		}
		log.Error("elevenlabs proxy request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream request failed"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (s *Server) handleCreateAgent(c *fiber.Ctx) error {
	body, err := s.elevenAPI.CreateAgent(c.Context(), c.Body())
	return proxyResult(c, body, err)
}

func (s *Server) handleListAgents(c *fiber.Ctx) error {
	body, err := s.elevenAPI.ListAgents(c.Context())
	return proxyResult(c, body, err)
}

func (s *Server) handleGetAgent(c *fiber.Ctx) error {
	body, err := s.elevenAPI.GetAgent(c.Context(), c.Params("id"))
	return proxyResult(c, body, err)
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	body, err := s.elevenAPI.ListConversations(c.Context())
	return proxyResult(c, body, err)
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	body, err := s.elevenAPI.GetConversation(c.Context(), c.Params("id"))
	return proxyResult(c, body, err)
}
