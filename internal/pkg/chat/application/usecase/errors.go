package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
	repository "go-recruitchat/internal/pkg/chat/persistence/repository/port"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = errors.New("chat use case persistence error")

// DefaultStoreTimeout bounds a store call when no timeout is configured.
const DefaultStoreTimeout = 3 * time.Second

// Store wraps the repository port with a per-call timeout and maps its
// failures onto the chat error kinds.
type Store struct {
	Repo    repository.ConversationRepository
	Timeout time.Duration
}

func NewStore(repo repository.ConversationRepository, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Store{Repo: repo, Timeout: timeout}
}

func (s *Store) Load(ctx context.Context, id string) (*chat.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	conv, err := s.Repo.LoadConversation(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, chat.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load conversation: %v", ErrPersistence, err)
	}
	return conv, nil
}

func (s *Store) Save(ctx context.Context, conv chat.Conversation) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Repo.SaveConversation(ctx, conv); err != nil {
		return fmt.Errorf("%w: save conversation: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) InsertMessages(ctx context.Context, conversationID string, msgs []chat.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Repo.BulkInsertMessages(ctx, conversationID, msgs); err != nil {
		return fmt.Errorf("%w: insert messages: %v", ErrPersistence, err)
	}
	return nil
}

func (s *Store) Messages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	msgs, err := s.Repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrPersistence, err)
	}
	return msgs, nil
}
