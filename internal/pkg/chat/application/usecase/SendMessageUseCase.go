package usecase

import (
	"context"

	"go-recruitchat/internal/infrastructure/idgen"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/pkg/chat/application/arena"
	"go-recruitchat/internal/pkg/chat/application/buffer"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/protocol"
)

// SendMessageInput carries the data needed to send a new message
type SendMessageInput struct {
	Conn           *realtime.Connection
	ConversationID string
	Content        string
}

// SendMessageUseCase buffers a message from a room member, fans it out to the
// other members and echoes it back to the sender.
type SendMessageUseCase struct {
	Router     *realtime.Router
	Buffer     *buffer.MessageBuffer
	Locks      *arena.Arena
	IDs        idgen.Generator
	MaxContent int
}

func NewSendMessageUseCase(router *realtime.Router, buf *buffer.MessageBuffer, locks *arena.Arena, ids idgen.Generator, maxContent int) *SendMessageUseCase {
	return &SendMessageUseCase{
		Router:     router,
		Buffer:     buf,
		Locks:      locks,
		IDs:        ids,
		MaxContent: maxContent,
	}
}

// Execute requires room membership. The room is dissolved under the same lock
// when the conversation closes, so a message accepted here is always flushed.
func (uc *SendMessageUseCase) Execute(_ context.Context, in SendMessageInput) (*chat.Message, error) {
	release := uc.Locks.Acquire(in.ConversationID)
	defer release()

	room := chat.RoomName(in.ConversationID)
	if !uc.Router.IsMember(room, in.Conn) {
		return nil, chat.ErrMustJoinFirst
	}

	msg, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.Conn.UserID,
		SenderRole:     in.Conn.Role,
		Content:        in.Content,
	}, uc.MaxContent)
	if err != nil {
		return nil, err
	}
	msg.ID = uc.IDs.Next()

	uc.Buffer.Append(in.ConversationID, *msg)

	payload := protocol.Message(*msg)
	uc.Router.Broadcast(room, payload, in.Conn)
	_ = in.Conn.Send(payload)
	return msg, nil
}
