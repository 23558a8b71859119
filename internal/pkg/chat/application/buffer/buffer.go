// Package buffer keeps the in-memory message log of live conversations.
package buffer

import (
	"context"
	"sync"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

// Sink persists a batch of messages. It is called at most once per Flush.
type Sink func(ctx context.Context, conversationID string, messages []chat.Message) error

// MessageBuffer is an ordered, per-conversation message log held in memory
// until the conversation closes. Callers serialize work on the same
// conversation; the buffer only guards its own map.
type MessageBuffer struct {
	mu   sync.RWMutex
	logs map[string][]chat.Message
}

// New returns an empty MessageBuffer.
func New() *MessageBuffer {
	return &MessageBuffer{logs: make(map[string][]chat.Message)}
}

// Append adds msg to the end of the conversation's log.
func (b *MessageBuffer) Append(conversationID string, msg chat.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs[conversationID] = append(b.logs[conversationID], msg)
}

// Replay returns a copy of the conversation's log in arrival order.
// An unknown conversation yields an empty slice.
func (b *MessageBuffer) Replay(conversationID string) []chat.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	log := b.logs[conversationID]
	out := make([]chat.Message, len(log))
	copy(out, log)
	return out
}

// Len returns the number of buffered messages for the conversation.
func (b *MessageBuffer) Len(conversationID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.logs[conversationID])
}

// Flush hands the whole log to sink as one batch and deletes the key once
// sink succeeds. On error the log is kept intact so the flush can be retried.
// An empty or absent log is a no-op and sink is not called.
func (b *MessageBuffer) Flush(ctx context.Context, conversationID string, sink Sink) (int, error) {
	batch := b.Replay(conversationID)
	if len(batch) == 0 {
		b.Drop(conversationID)
		return 0, nil
	}

	if err := sink(ctx, conversationID, batch); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// Anything appended while sink ran stays buffered.
	if rest := b.logs[conversationID][len(batch):]; len(rest) > 0 {
		b.logs[conversationID] = append([]chat.Message(nil), rest...)
	} else {
		delete(b.logs, conversationID)
	}
	return len(batch), nil
}

// Drop deletes the conversation's log without persisting it.
func (b *MessageBuffer) Drop(conversationID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.logs, conversationID)
}

// Conversations returns how many conversations currently hold a log.
func (b *MessageBuffer) Conversations() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.logs)
}
