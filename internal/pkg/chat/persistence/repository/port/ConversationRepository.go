package repository

import (
	"context"
	"errors"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

// ErrNotFound is returned by LoadConversation when no record has the id.
var ErrNotFound = errors.New("repository: conversation not found")

// ConversationRepository is the durable store consumed by the chat use cases.
// Conversations are created and assigned elsewhere; this port only reads them,
// persists status changes and receives flushed transcripts.
type ConversationRepository interface {
	LoadConversation(ctx context.Context, id string) (*chat.Conversation, error)
	SaveConversation(ctx context.Context, c chat.Conversation) error
	BulkInsertMessages(ctx context.Context, conversationID string, msgs []chat.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
	Ping(ctx context.Context) error
}
