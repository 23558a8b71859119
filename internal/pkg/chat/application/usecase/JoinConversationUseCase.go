package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go-recruitchat/internal/infrastructure/logging"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/pkg/chat/application/arena"
	"go-recruitchat/internal/pkg/chat/application/buffer"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/protocol"
)

// JoinConversationInput identifies the connection entering a conversation room.
type JoinConversationInput struct {
	Conn           *realtime.Connection
	ConversationID string
}

// JoinConversationUseCase authorizes a connection against the conversation
// record, puts it in the room, activates the conversation when its agent
// arrives and replays the buffered messages to the joiner.
type JoinConversationUseCase struct {
	Store  *Store
	Router *realtime.Router
	Buffer *buffer.MessageBuffer
	Locks  *arena.Arena
	Logger *slog.Logger
}

func NewJoinConversationUseCase(store *Store, router *realtime.Router, buf *buffer.MessageBuffer, locks *arena.Arena, logger *slog.Logger) *JoinConversationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &JoinConversationUseCase{
		Store:  store,
		Router: router,
		Buffer: buf,
		Locks:  locks,
		Logger: logger.With("component", "chat.join"),
	}
}

func (uc *JoinConversationUseCase) Execute(ctx context.Context, in JoinConversationInput) (*chat.Conversation, error) {
	release := uc.Locks.Acquire(in.ConversationID)
	defer release()

	conv, err := uc.Store.Load(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}

	who := in.Conn.Identity()
	if err := conv.AuthorizeJoin(who); err != nil {
		return nil, err
	}

	room := conv.Room()
	wasMember := uc.Router.IsMember(room, in.Conn)
	if err := uc.Router.Join(room, in.Conn); err != nil {
		return nil, fmt.Errorf("%w: join room: %v", ErrPersistence, err)
	}

	if conv.ActivateOnJoin(who) {
		if err := uc.Store.Save(ctx, *conv); err != nil {
			if !wasMember {
				uc.Router.Leave(room, in.Conn)
			}
			return nil, err
		}
		ctx = logging.WithLogFields(ctx, logging.LogFields{ConversationID: conv.ID, UserID: who.UserID})
		uc.Logger.InfoContext(ctx, "conversation assigned", "status", conv.Status)
	}

	_ = in.Conn.Send(protocol.Joined(conv.ID, conv.Status))
	for _, m := range uc.Buffer.Replay(conv.ID) {
		_ = in.Conn.Send(protocol.Message(m))
	}
	return conv, nil
}
