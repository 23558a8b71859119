// Package protocol encodes and decodes the JSON envelopes exchanged over the
// conversation websocket. Every frame is {"event": string, "data": object}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

// Inbound events.
const (
	EventJoinConversation  = "JOIN_CONVERSATION"
	EventNewMessage        = "NEW_MESSAGE"
	EventLeaveConversation = "LEAVE_CONVERSATION"
	EventCloseConversation = "CLOSE_CONVERSATION"
)

// Outbound events. NEW_MESSAGE is used in both directions.
const (
	EventJoinedConversation = "JOINED_CONVERSATION"
	EventLeftConversation   = "LEFT_CONVERSATION"
	EventConversationClosed = "CONVERSATION_CLOSED"
	EventError              = "ERROR"
)

var (
	ErrMissingEvent = fmt.Errorf("%w: missing event", chat.ErrFormat)
	ErrUnknownEvent = fmt.Errorf("%w: unknown event", chat.ErrFormat)
)

// Envelope is the raw frame before its data is bound to a command.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Command is one decoded inbound event.
type Command interface {
	Event() string
	Conversation() string
}

type JoinConversation struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type NewMessage struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Content        string `json:"content"`
}

type LeaveConversation struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

type CloseConversation struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

func (JoinConversation) Event() string { return EventJoinConversation }
func (NewMessage) Event() string { return EventNewMessage }
func (LeaveConversation) Event() string { return EventLeaveConversation }
func (CloseConversation) Event() string { return EventCloseConversation }
func (c JoinConversation) Conversation() string { return c.ConversationID }
func (c NewMessage) Conversation() string { return c.ConversationID }
func (c LeaveConversation) Conversation() string { return c.ConversationID }
func (c CloseConversation) Conversation() string { return c.ConversationID }

// Action maps a command to the capability it needs.
func Action(cmd Command) chat.Action {
	switch cmd.(type) {
	case JoinConversation:
		return chat.ActionJoin
	case NewMessage:
		return chat.ActionSend
	case LeaveConversation:
		return chat.ActionLeave
	case CloseConversation:
		return chat.ActionClose
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses a frame into its command. The envelope event is returned even
// when binding its data fails so callers can label the failure.
func Decode(frame []byte) (string, Command, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", chat.ErrFormat, err)
	}
	if env.Event == "" {
		return "", nil, ErrMissingEvent
	}

	var cmd Command
	var err error
	switch env.Event {
	case EventJoinConversation:
		cmd, err = bind[JoinConversation](env.Data)
	case EventNewMessage:
		cmd, err = bind[NewMessage](env.Data)
	case EventLeaveConversation:
		cmd, err = bind[LeaveConversation](env.Data)
	case EventCloseConversation:
		cmd, err = bind[CloseConversation](env.Data)
	default:
		return env.Event, nil, fmt.Errorf("%w %q", ErrUnknownEvent, env.Event)
	}
	return env.Event, cmd, err
}

func bind[T Command](data json.RawMessage) (Command, error) {
	var v T
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", chat.ErrFormat, err)
		}
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
				return fe.Field() + " is " + fe.Tag()
			})
			return nil, fmt.Errorf("%w: %s", chat.ErrFormat, strings.Join(fields, ", "))
		}
		return nil, fmt.Errorf("%w: %v", chat.ErrFormat, err)
	}
	return v, nil
}

// Outbound payloads.

type JoinedPayload struct {
	ConversationID string      `json:"conversationId"`
	Status         chat.Status `json:"status"`
}

type MessagePayload struct {
	ID             int64     `json:"id,string"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderRole     chat.Role `json:"senderRole"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Encode marshals an outbound envelope.
func Encode(event string, data any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

// ToMessagePayload converts a buffered or stored message to its wire shape.
func ToMessagePayload(m chat.Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     m.SenderRole,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// ToMessagePayloads converts a transcript.
func ToMessagePayloads(msgs []chat.Message) []MessagePayload {
	return lo.Map(msgs, func(m chat.Message, _ int) MessagePayload { return ToMessagePayload(m) })
}

// Joined encodes JOINED_CONVERSATION.
func Joined(conversationID string, status chat.Status) []byte {
	return mustEncode(EventJoinedConversation, JoinedPayload{ConversationID: conversationID, Status: status})
}

// Message encodes NEW_MESSAGE.
func Message(m chat.Message) []byte {
	return mustEncode(EventNewMessage, ToMessagePayload(m))
}

// Left encodes LEFT_CONVERSATION.
func Left(conversationID string) []byte {
	return mustEncode(EventLeftConversation, ConversationPayload{ConversationID: conversationID})
}

// Closed encodes CONVERSATION_CLOSED.
func Closed(conversationID string) []byte {
	return mustEncode(EventConversationClosed, ConversationPayload{ConversationID: conversationID})
}

// Error encodes an ERROR envelope whose message is safe to show a client.
func Error(err error) []byte {
	return mustEncode(EventError, ErrorPayload{Message: ErrorMessage(err)})
}

// ErrorMessage renders err for a client. Errors outside the known kinds are
// reported as a generic internal error so infrastructure detail never leaks.
func ErrorMessage(err error) string {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return strings.TrimPrefix(err.Error(), "chat: ")
		}
	}
	return "internal error"
}

var kinds = []error{
	chat.ErrFormat,
	chat.ErrNotFound,
	chat.ErrForbiddenRole,
	chat.ErrNotAuthorized,
	chat.ErrInvalidState,
	chat.ErrNotJoined,
}

// mustEncode is only used with the fixed payload types above, which always marshal.
func mustEncode(event string, data any) []byte {
	b, err := Encode(event, data)
	if err != nil {
		panic(fmt.Sprintf("protocol: encode %s: %v", event, err))
	}
	return b
}
