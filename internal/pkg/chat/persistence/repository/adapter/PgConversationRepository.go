package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
	repository "go-recruitchat/internal/pkg/chat/persistence/repository/port"
)

var errNilPool = errors.New("PgConversationRepository: nil pool")

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) LoadConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, candidate_id, supervisor_id, agent_id, status, created_at
		FROM conversations
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[chat.Conversation])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SaveConversation writes the full record. Status only moves forward, so a
// stale write can never reopen a closed conversation.
func (r *PgConversationRepository) SaveConversation(ctx context.Context, c chat.Conversation) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversations (id, candidate_id, supervisor_id, agent_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET agent_id = EXCLUDED.agent_id,
		              status = EXCLUDED.status
		WHERE conversations.status <> 'closed'
	`, c.ID, c.CandidateID, c.SupervisorID, c.AgentID, c.Status, c.CreatedAt)
	return err
}

// BulkInsertMessages appends the transcript in one batch inside a transaction.
// Ids are assigned before buffering, so a retried flush skips rows that were
// already written.
func (r *PgConversationRepository) BulkInsertMessages(ctx context.Context, conversationID string, msgs []chat.Message) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	if len(msgs) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, m := range msgs {
			batch.Queue(`
				INSERT INTO messages (id, conversation_id, sender_id, sender_role, content, created_at, seq)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO NOTHING
			`, m.ID, conversationID, m.SenderID, string(m.SenderRole), m.Content, m.CreatedAt, i)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("PgConversationRepository: insert %d messages: %w", len(msgs), err)
		}
		return nil
	})
}

func (r *PgConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, sender_role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			msg  chat.Message
			role string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.SenderRole = chat.Role(role)
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgConversationRepository) Ping(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	return r.pool.Ping(ctx)
}
