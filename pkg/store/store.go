// Package store persists conversation transcript records. The relay core
// treats it as an external collaborator: append a record, get back its
// generated identifier.
package store

import (
	"context"
	"time"
)

// Record is one conversation transcript entry.
type Record struct {
	ConversationID string    `json:"conversation_id"`
	UserMessage    string    `json:"user_message"`
	AgentMessage   string    `json:"agent_message"`
	Timestamp      time.Time `json:"timestamp"`
	InputTokens    int       `json:"input_tokens"`
	OutputTokens   int       `json:"output_tokens"`
	TotalTokens    int       `json:"total_tokens"`
	Transcript     string    `json:"transcript"`
}

// Store appends transcript records and returns their generated identifiers.
type Store interface {
	Append(ctx context.Context, rec Record) (string, error)
}
