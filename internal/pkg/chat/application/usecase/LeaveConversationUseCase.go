package usecase

import (
	"context"
	"strings"

	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/pkg/chat/application/arena"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/protocol"
)

type LeaveConversationInput struct {
	Conn           *realtime.Connection
	ConversationID string
}

// LeaveConversationUseCase takes a connection out of a conversation room.
// The conversation status is untouched.
type LeaveConversationUseCase struct {
	Router *realtime.Router
	Locks  *arena.Arena
}

func NewLeaveConversationUseCase(router *realtime.Router, locks *arena.Arena) *LeaveConversationUseCase {
	return &LeaveConversationUseCase{Router: router, Locks: locks}
}

func (uc *LeaveConversationUseCase) Execute(_ context.Context, in LeaveConversationInput) error {
	release := uc.Locks.Acquire(in.ConversationID)
	defer release()

	if !uc.Router.Leave(chat.RoomName(in.ConversationID), in.Conn) {
		return chat.ErrMustJoinFirst
	}
	_ = in.Conn.Send(protocol.Left(in.ConversationID))
	return nil
}

// Disconnect removes a closing connection from every room it joined. Each
// room is left under its conversation lock so a concurrent close or send
// sees a consistent membership.
func (uc *LeaveConversationUseCase) Disconnect(conn *realtime.Connection) int {
	rooms := uc.Router.RoomsOf(conn)
	for _, room := range rooms {
		id := strings.TrimPrefix(room, chat.RoomPrefix)
		release := uc.Locks.Acquire(id)
		uc.Router.Leave(room, conn)
		release()
	}
	uc.Router.Detach(conn)
	return len(rooms)
}
