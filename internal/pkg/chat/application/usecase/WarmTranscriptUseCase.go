package usecase

import (
	"context"
	"fmt"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

// WarmTranscriptUseCase loads the persisted transcript of a closed
// conversation into the transcript cache.
type WarmTranscriptUseCase struct {
	Store       *Store
	Transcripts *TranscriptCache
}

func NewWarmTranscriptUseCase(store *Store, transcripts *TranscriptCache) *WarmTranscriptUseCase {
	return &WarmTranscriptUseCase{Store: store, Transcripts: transcripts}
}

// Execute returns the number of cached messages. Conversations that are not
// closed are skipped: their transcript is not final yet.
func (uc *WarmTranscriptUseCase) Execute(ctx context.Context, conversationID string) (int, error) {
	conv, err := uc.Store.Load(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if conv.Status != chat.StatusClosed {
		return 0, nil
	}

	msgs, err := uc.Store.Messages(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if err := uc.Transcripts.Put(ctx, conversationID, msgs); err != nil {
		return 0, fmt.Errorf("%w: cache transcript: %v", ErrPersistence, err)
	}
	return len(msgs), nil
}
