package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

const conversationSchema = `
CREATE TABLE IF NOT EXISTS conversation (
	id              BIGSERIAL PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	user_message    TEXT,
	agent_message   TEXT,
	ts              TIMESTAMPTZ NOT NULL,
	input_tokens    INTEGER NOT NULL DEFAULT 0,
	output_tokens   INTEGER NOT NULL DEFAULT 0,
	total_tokens    INTEGER NOT NULL DEFAULT 0,
	transcript      TEXT
)`

// Postgres persists transcript records in a conversation table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, conversationSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Append inserts one record and returns its generated identifier.
func (p *Postgres) Append(ctx context.Context, rec Record) (string, error) {
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO conversation
			(conversation_id, user_message, agent_message, ts,
			 input_tokens, output_tokens, total_tokens, transcript)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		rec.ConversationID, rec.UserMessage, rec.AgentMessage, rec.Timestamp,
		rec.InputTokens, rec.OutputTokens, rec.TotalTokens, rec.Transcript,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: append: %w", err)
	}

	return strconv.FormatInt(id, 10), nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

var _ Store = (*Postgres)(nil)
