// Package repositorytest provides an in-memory ConversationRepository for tests.
package repositorytest

import (
	"context"
	"sync"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
	repository "go-recruitchat/internal/pkg/chat/persistence/repository/port"
)

// Memory stores conversations and messages in maps. The *Fn hooks, when set,
// run before the default behavior; a non-nil error from a hook is returned
// without touching state.
type Memory struct {
	mu            sync.Mutex
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message
	bulkInserts   int
	saves         int

	LoadFn       func(ctx context.Context, id string) error
	SaveFn       func(ctx context.Context, c chat.Conversation) error
	BulkInsertFn func(ctx context.Context, conversationID string, msgs []chat.Message) error
	ListFn       func(ctx context.Context, conversationID string) error
}

var _ repository.ConversationRepository = (*Memory)(nil)

func NewMemory(convs ...chat.Conversation) *Memory {
	m := &Memory{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
	for _, c := range convs {
		m.conversations[c.ID] = c
	}
	return m
}

func (m *Memory) LoadConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if m.LoadFn != nil {
		if err := m.LoadFn(ctx, id); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) SaveConversation(ctx context.Context, c chat.Conversation) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(ctx, c); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if prev, ok := m.conversations[c.ID]; ok && prev.Status == chat.StatusClosed {
		return nil
	}
	m.conversations[c.ID] = c
	return nil
}

func (m *Memory) BulkInsertMessages(ctx context.Context, conversationID string, msgs []chat.Message) error {
	if m.BulkInsertFn != nil {
		if err := m.BulkInsertFn(ctx, conversationID, msgs); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkInserts++
	seen := make(map[int64]bool, len(m.messages[conversationID]))
	for _, existing := range m.messages[conversationID] {
		seen[existing.ID] = true
	}
	for _, msg := range msgs {
		if !seen[msg.ID] {
			m.messages[conversationID] = append(m.messages[conversationID], msg)
		}
	}
	return nil
}

func (m *Memory) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	if m.ListFn != nil {
		if err := m.ListFn(ctx, conversationID); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Message, len(m.messages[conversationID]))
	copy(out, m.messages[conversationID])
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Conversation returns the stored record.
func (m *Memory) Conversation(id string) chat.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversations[id]
}

// BulkInserts counts successful BulkInsertMessages calls.
func (m *Memory) BulkInserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bulkInserts
}

// Saves counts successful SaveConversation calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
