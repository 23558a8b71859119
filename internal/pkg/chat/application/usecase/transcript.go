package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go-recruitchat/internal/infrastructure/cache/port"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

const transcriptKeyPrefix = "chat:transcript:"

// TranscriptCache keeps the persisted messages of closed conversations.
// Closed conversations never change, so entries only expire by TTL.
type TranscriptCache struct {
	Cache  port.Cache
	TTL    time.Duration
	Logger *slog.Logger
}

func NewTranscriptCache(cache port.Cache, ttl time.Duration, logger *slog.Logger) *TranscriptCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptCache{Cache: cache, TTL: ttl, Logger: logger.With("component", "chat.transcript")}
}

func transcriptKey(conversationID string) string {
	return transcriptKeyPrefix + conversationID
}

// Get returns the cached transcript. Misses and cache failures both report
// false; failures are logged.
func (t *TranscriptCache) Get(ctx context.Context, conversationID string) ([]chat.Message, bool) {
	if t == nil || t.Cache == nil {
		return nil, false
	}
	raw, err := t.Cache.Get(ctx, transcriptKey(conversationID))
	if err != nil {
		if !errors.Is(err, port.ErrMiss) {
			t.Logger.WarnContext(ctx, "transcript cache get", "conversation_id", conversationID, "error", err)
		}
		return nil, false
	}
	var msgs []chat.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		t.Logger.WarnContext(ctx, "transcript cache decode", "conversation_id", conversationID, "error", err)
		return nil, false
	}
	return msgs, true
}

func (t *TranscriptCache) Put(ctx context.Context, conversationID string, msgs []chat.Message) error {
	if t == nil || t.Cache == nil {
		return nil
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return t.Cache.Set(ctx, transcriptKey(conversationID), string(raw), t.TTL)
}
