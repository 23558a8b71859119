package usecase

import (
	"context"
	"log/slog"

	"go-recruitchat/internal/infrastructure/logging"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/pkg/chat/application/arena"
	"go-recruitchat/internal/pkg/chat/application/buffer"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/protocol"
)

// ClosedPublisher is told about every conversation that reached closed.
type ClosedPublisher interface {
	PublishConversationClosed(ctx context.Context, conversationID string) error
}

// CloseConversationInput is the agent completion request sent over the socket.
type CloseConversationInput struct {
	Conn           *realtime.Connection
	ConversationID string
}

// AbandonConversationInput is the administrative close of a conversation
// that never went live.
type AbandonConversationInput struct {
	Identity       chat.Identity
	ConversationID string
}

// CloseConversationUseCase owns both paths into closed. Either path flushes
// the buffer, persists the status, announces the closure and dissolves the
// room while holding the conversation lock.
type CloseConversationUseCase struct {
	Store     *Store
	Router    *realtime.Router
	Buffer    *buffer.MessageBuffer
	Locks     *arena.Arena
	Publisher ClosedPublisher
	Logger    *slog.Logger
}

func NewCloseConversationUseCase(store *Store, router *realtime.Router, buf *buffer.MessageBuffer, locks *arena.Arena, publisher ClosedPublisher, logger *slog.Logger) *CloseConversationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloseConversationUseCase{
		Store:     store,
		Router:    router,
		Buffer:    buf,
		Locks:     locks,
		Publisher: publisher,
		Logger:    logger.With("component", "chat.close"),
	}
}

// Complete is the assigned -> closed path, open only to the assigned agent.
func (uc *CloseConversationUseCase) Complete(ctx context.Context, in CloseConversationInput) (*chat.Conversation, error) {
	who := in.Conn.Identity()
	return uc.close(ctx, in.ConversationID, in.Conn, func(c *chat.Conversation) error {
		return c.Complete(who)
	})
}

// Abandon is the open -> closed path for the owning supervisor or an admin.
// Candidates who wrote before any agent joined still get their messages persisted.
func (uc *CloseConversationUseCase) Abandon(ctx context.Context, in AbandonConversationInput) (*chat.Conversation, error) {
	return uc.close(ctx, in.ConversationID, nil, func(c *chat.Conversation) error {
		return c.Abandon(in.Identity)
	})
}

func (uc *CloseConversationUseCase) close(ctx context.Context, id string, closer *realtime.Connection, transition func(*chat.Conversation) error) (*chat.Conversation, error) {
	release := uc.Locks.Acquire(id)

	conv, err := uc.Store.Load(ctx, id)
	if err != nil {
		release()
		return nil, err
	}
	if err := transition(conv); err != nil {
		release()
		return nil, err
	}

	flushed, err := uc.flush(ctx, conv)
	if err != nil {
		release()
		return nil, err
	}
	uc.Buffer.Drop(id)

	room := conv.Room()
	payload := protocol.Closed(id)
	uc.Router.Broadcast(room, payload, closer)
	if closer != nil {
		_ = closer.Send(payload)
	}
	members := uc.Router.Dissolve(room)
	release()

	ctx = logging.WithLogFields(ctx, logging.LogFields{ConversationID: id})
	uc.Logger.InfoContext(ctx, "conversation closed", "flushed", flushed, "members", members)

	if uc.Publisher != nil {
		if err := uc.Publisher.PublishConversationClosed(ctx, id); err != nil {
			uc.Logger.WarnContext(ctx, "publish conversation closed", "error", err)
		}
	}
	return conv, nil
}

// flush writes the buffered transcript and then the closed status. The buffer
// key survives any failure, and re-inserting an already written message is a
// no-op, so the caller may simply retry the close.
func (uc *CloseConversationUseCase) flush(ctx context.Context, conv *chat.Conversation) (int, error) {
	committed := false
	commit := func(ctx context.Context) error {
		if err := uc.Store.Save(ctx, *conv); err != nil {
			return err
		}
		committed = true
		return nil
	}

	n, err := uc.Buffer.Flush(ctx, conv.ID, func(ctx context.Context, id string, msgs []chat.Message) error {
		if err := uc.Store.InsertMessages(ctx, id, msgs); err != nil {
			return err
		}
		return commit(ctx)
	})
	if err != nil {
		return 0, err
	}
	if !committed {
		if err := commit(ctx); err != nil {
			return 0, err
		}
	}
	return n, nil
}
