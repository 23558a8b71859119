package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the tables the chat service reads and writes. Conversations
// are inserted by the conversation management service; the statement only
// guarantees the shape on a fresh database.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	candidate_id  TEXT NOT NULL,
	supervisor_id TEXT NOT NULL,
	agent_id      TEXT,
	status        TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'assigned', 'closed')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
	id              BIGINT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	sender_id       TEXT NOT NULL,
	sender_role     TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	seq             INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS messages_conversation_seq_idx ON messages (conversation_id, seq);
`

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}
