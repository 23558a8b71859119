package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "go-recruitchat/internal/pkg/chat/application/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		event   string
		want    Command
		wantErr error
	}{
		{
			name:  "join",
			frame: `{"event":"JOIN_CONVERSATION","data":{"conversationId":"k"}}`,
			event: EventJoinConversation,
			want:  JoinConversation{ConversationID: "k"},
		},
		{
			name:  "new message",
			frame: `{"event":"NEW_MESSAGE","data":{"conversationId":"k","content":"hello"}}`,
			event: EventNewMessage,
			want:  NewMessage{ConversationID: "k", Content: "hello"},
		},
		{
			name:  "new message without content is left to the handler",
			frame: `{"event":"NEW_MESSAGE","data":{"conversationId":"k"}}`,
			event: EventNewMessage,
			want:  NewMessage{ConversationID: "k"},
		},
		{
			name:  "leave",
			frame: `{"event":"LEAVE_CONVERSATION","data":{"conversationId":"k"}}`,
			event: EventLeaveConversation,
			want:  LeaveConversation{ConversationID: "k"},
		},
		{
			name:  "close",
			frame: `{"event":"CLOSE_CONVERSATION","data":{"conversationId":"k"}}`,
			event: EventCloseConversation,
			want:  CloseConversation{ConversationID: "k"},
		},
		{name: "not json", frame: `hello`, wantErr: chat.ErrFormat},
		{name: "missing event", frame: `{"data":{}}`, wantErr: ErrMissingEvent},
		{name: "unknown event", frame: `{"event":"DANCE","data":{}}`, event: "DANCE", wantErr: ErrUnknownEvent},
		{name: "missing data", frame: `{"event":"JOIN_CONVERSATION"}`, event: EventJoinConversation, wantErr: chat.ErrFormat},
		{name: "wrong data type", frame: `{"event":"LEAVE_CONVERSATION","data":{"conversationId":7}}`, event: EventLeaveConversation, wantErr: chat.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, cmd, err := Decode([]byte(tt.frame))
			assert.Equal(t, tt.event, event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, cmd)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
			assert.Equal(t, tt.event, cmd.Event())
			assert.Equal(t, "k", cmd.Conversation())
		})
	}
}

func TestDecode_ValidationMessageUsesWireNames(t *testing.T) {
	_, _, err := Decode([]byte(`{"event":"CLOSE_CONVERSATION","data":{}}`))
	require.ErrorIs(t, err, chat.ErrFormat)
	assert.Contains(t, err.Error(), "conversationId is required")
}

func TestAction(t *testing.T) {
	assert.Equal(t, chat.ActionJoin, Action(JoinConversation{}))
	assert.Equal(t, chat.ActionSend, Action(NewMessage{}))
	assert.Equal(t, chat.ActionLeave, Action(LeaveConversation{}))
	assert.Equal(t, chat.ActionClose, Action(CloseConversation{}))
}

func TestEncodeMessage(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	frame := Message(chat.Message{
		ID:             1234567890123456789,
		ConversationID: "k",
		SenderID:       "c",
		SenderRole:     chat.RoleCandidate,
		Content:        "hello",
		CreatedAt:      at,
	})

	var got struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, EventNewMessage, got.Event)
	assert.Equal(t, map[string]any{
		"id":             "1234567890123456789",
		"conversationId": "k",
		"senderId":       "c",
		"senderRole":     "candidate",
		"content":        "hello",
		"createdAt":      "2026-01-02T03:04:05Z",
	}, got.Data)
}

func TestEncodeReplies(t *testing.T) {
	assert.JSONEq(t, `{"event":"JOINED_CONVERSATION","data":{"conversationId":"k","status":"assigned"}}`, string(Joined("k", chat.StatusAssigned)))
	assert.JSONEq(t, `{"event":"LEFT_CONVERSATION","data":{"conversationId":"k"}}`, string(Left("k")))
	assert.JSONEq(t, `{"event":"CONVERSATION_CLOSED","data":{"conversationId":"k"}}`, string(Closed("k")))
}

func TestErrorMessage(t *testing.T) {
	assert.JSONEq(t, `{"event":"ERROR","data":{"message":"conversation not joined: you must join the conversation first"}}`,
		string(Error(chat.ErrMustJoinFirst)))

	assert.Equal(t, "invalid message format: missing content", ErrorMessage(chat.ErrEmptyMessage))
	assert.Equal(t, "internal error", ErrorMessage(errors.New("dial tcp 10.0.0.1:5432: i/o timeout")))
}
