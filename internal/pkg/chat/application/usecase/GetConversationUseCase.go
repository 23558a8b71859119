package usecase

import (
	"context"

	"go-recruitchat/internal/pkg/chat/application/buffer"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

type GetConversationInput struct {
	Identity       chat.Identity
	ConversationID string
}

// ConversationView is a conversation with its messages so far.
type ConversationView struct {
	Conversation chat.Conversation
	Messages     []chat.Message
}

// GetConversationUseCase reads a conversation for someone involved in it.
// Closed conversations come from the transcript cache or the store; live ones
// from the in-memory buffer.
type GetConversationUseCase struct {
	Store       *Store
	Buffer      *buffer.MessageBuffer
	Transcripts *TranscriptCache
}

func NewGetConversationUseCase(store *Store, buf *buffer.MessageBuffer, transcripts *TranscriptCache) *GetConversationUseCase {
	return &GetConversationUseCase{Store: store, Buffer: buf, Transcripts: transcripts}
}

func (uc *GetConversationUseCase) Execute(ctx context.Context, in GetConversationInput) (*ConversationView, error) {
	if !chat.Can(in.Identity.Role, chat.ActionRead) {
		return nil, chat.ErrForbiddenRole
	}

	conv, err := uc.Store.Load(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.Involves(in.Identity) {
		return nil, chat.ErrNotYourConversation
	}

	view := &ConversationView{Conversation: *conv}
	if conv.Status != chat.StatusClosed {
		view.Messages = uc.Buffer.Replay(conv.ID)
		return view, nil
	}

	if msgs, ok := uc.Transcripts.Get(ctx, conv.ID); ok {
		view.Messages = msgs
		return view, nil
	}
	msgs, err := uc.Store.Messages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if err := uc.Transcripts.Put(ctx, conv.ID, msgs); err != nil {
		uc.Transcripts.Logger.WarnContext(ctx, "transcript cache put", "conversation_id", conv.ID, "error", err)
	}
	view.Messages = msgs
	return view, nil
}
