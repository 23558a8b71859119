package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-recruitchat/internal/infrastructure/cache/cachetest"
	"go-recruitchat/internal/infrastructure/identity"
	"go-recruitchat/internal/infrastructure/idgen"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/pkg/chat/application/arena"
	"go-recruitchat/internal/pkg/chat/application/buffer"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/application/usecase"
	"go-recruitchat/internal/pkg/chat/persistence/repository/repositorytest"
	chathttp "go-recruitchat/internal/pkg/chat/presentation/http"
	"go-recruitchat/internal/pkg/chat/protocol"
)

var (
	candidate  = chat.Identity{UserID: "C", Role: chat.RoleCandidate}
	agent      = chat.Identity{UserID: "A", Role: chat.RoleAgent}
	supervisor = chat.Identity{UserID: "S", Role: chat.RoleSupervisor}
	stranger   = chat.Identity{UserID: "C2", Role: chat.RoleCandidate}
)

func conversationK() chat.Conversation {
	agentID := agent.UserID
	return chat.Conversation{
		ID:           "K",
		CandidateID:  candidate.UserID,
		SupervisorID: supervisor.UserID,
		AgentID:      &agentID,
		Status:       chat.StatusOpen,
		CreatedAt:    time.Now().UTC(),
	}
}

type stack struct {
	srv      *httptest.Server
	repo     *repositorytest.Memory
	router   *realtime.Router
	verifier *identity.JWTVerifier
}

func newStack(t *testing.T, convs ...chat.Conversation) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repositorytest.NewMemory(convs...)
	store := usecase.NewStore(repo, time.Second)
	router := realtime.NewRouter()
	buf := buffer.New()
	locks := arena.New()
	transcripts := usecase.NewTranscriptCache(cachetest.NewMemory(), time.Hour, nil)
	ids, err := idgen.NewSnowflake(1)
	require.NoError(t, err)
	verifier := identity.NewJWTVerifier([]byte("0123456789abcdef0123456789abcdef"))

	engine := gin.New()
	require.NoError(t, chathttp.RegisterRoutes(engine.Group("/api/v1"), chathttp.Deps{
		Router:      router,
		Verifier:    verifier,
		Join:        usecase.NewJoinConversationUseCase(store, router, buf, locks, nil),
		Send:        usecase.NewSendMessageUseCase(router, buf, locks, ids, 100),
		Leave:       usecase.NewLeaveConversationUseCase(router, locks),
		Close:       usecase.NewCloseConversationUseCase(store, router, buf, locks, nil, nil),
		Get:         usecase.NewGetConversationUseCase(store, buf, transcripts),
		ReadTimeout: 5 * time.Second,
	}))

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		router.Close()
		srv.Close()
	})
	return &stack{srv: srv, repo: repo, router: router, verifier: verifier}
}

func (s *stack) token(t *testing.T, id chat.Identity) string {
	t.Helper()
	tok, err := s.verifier.Generate(id, time.Hour)
	require.NoError(t, err)
	return tok
}

type client struct {
	t  *testing.T
	ws *websocket.Conn
}

func (s *stack) dialRaw(t *testing.T, query string) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/v1/ws" + query
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = ws.Close() })
	return &client{t: t, ws: ws}
}

func (s *stack) dial(t *testing.T, id chat.Identity) *client {
	t.Helper()
	return s.dialRaw(t, "?token="+s.token(t, id))
}

func (c *client) sendRaw(frame string) {
	c.t.Helper()
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (c *client) send(event string, data any) {
	c.t.Helper()
	payload, err := protocol.Encode(event, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, payload))
}

func (c *client) expect(event string) json.RawMessage {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	var env protocol.Envelope
	require.NoError(c.t, json.Unmarshal(data, &env))
	require.Equal(c.t, event, env.Event, string(data))
	return env.Data
}

func (c *client) expectError(contains string) {
	c.t.Helper()
	var p protocol.ErrorPayload
	require.NoError(c.t, json.Unmarshal(c.expect(protocol.EventError), &p))
	assert.Contains(c.t, p.Message, contains)
}

func (c *client) expectClose(code int) {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := c.ws.ReadMessage()
		if err == nil {
			continue
		}
		var ce *websocket.CloseError
		require.True(c.t, errors.As(err, &ce), "want close error, got %v", err)
		assert.Equal(c.t, code, ce.Code)
		return
	}
}

func join(id string) protocol.JoinConversation { return protocol.JoinConversation{ConversationID: id} }

func TestSocketSession(t *testing.T) {
	s := newStack(t, conversationK())
	a := s.dial(t, agent)
	c := s.dial(t, candidate)

	a.send(protocol.EventJoinConversation, join("K"))
	assert.JSONEq(t, `{"conversationId":"K","status":"assigned"}`, string(a.expect(protocol.EventJoinedConversation)))

	c.send(protocol.EventJoinConversation, join("K"))
	c.expect(protocol.EventJoinedConversation)

	c.send(protocol.EventNewMessage, protocol.NewMessage{ConversationID: "K", Content: "hello"})
	var echoed, delivered protocol.MessagePayload
	require.NoError(t, json.Unmarshal(c.expect(protocol.EventNewMessage), &echoed))
	require.NoError(t, json.Unmarshal(a.expect(protocol.EventNewMessage), &delivered))
	assert.Equal(t, echoed, delivered)
	assert.Equal(t, "hello", delivered.Content)
	assert.Equal(t, candidate.UserID, delivered.SenderID)
	assert.Equal(t, chat.RoleCandidate, delivered.SenderRole)
	assert.NotZero(t, delivered.ID)

	c.send(protocol.EventCloseConversation, protocol.CloseConversation{ConversationID: "K"})
	c.expectError("forbidden for this role")

	a.send(protocol.EventCloseConversation, protocol.CloseConversation{ConversationID: "K"})
	a.expect(protocol.EventConversationClosed)
	c.expect(protocol.EventConversationClosed)

	stored, err := s.repo.ListMessages(context.Background(), "K")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, delivered.ID, stored[0].ID)
	assert.Equal(t, chat.StatusClosed, s.repo.Conversation("K").Status)

	c.send(protocol.EventJoinConversation, join("K"))
	c.expectError("conversation already closed")
}

func TestSocketRejectsMissingAndInvalidTokens(t *testing.T) {
	s := newStack(t)

	c := s.dialRaw(t, "")
	c.expectError("unauthorized: missing token")
	c.expectClose(realtime.CloseUnauthorized)

	c = s.dialRaw(t, "?token=garbage")
	c.expectError("unauthorized: invalid token")
	c.expectClose(realtime.CloseUnauthorized)
}

func TestSocketErrorsKeepTheConnectionOpen(t *testing.T) {
	s := newStack(t, conversationK())
	c := s.dial(t, candidate)

	c.sendRaw(`not json`)
	c.expectError("invalid message format")

	c.sendRaw(`{"data":{"conversationId":"K"}}`)
	c.expectError("invalid message format: missing event")

	c.sendRaw(`{"event":"SHOUT","data":{}}`)
	c.expectError("unknown event")

	c.send(protocol.EventJoinConversation, map[string]string{})
	c.expectError("conversationId is required")

	c.send(protocol.EventNewMessage, protocol.NewMessage{ConversationID: "K", Content: "hi"})
	c.expectError("conversation not joined: you must join the conversation first")

	c.send(protocol.EventJoinConversation, join("nope"))
	c.expectError("conversation not found")

	c.send(protocol.EventJoinConversation, join("K"))
	c.expect(protocol.EventJoinedConversation)

	c.send(protocol.EventNewMessage, protocol.NewMessage{ConversationID: "K", Content: "  "})
	c.expectError("missing content")

	c.send(protocol.EventLeaveConversation, protocol.LeaveConversation{ConversationID: "K"})
	c.expect(protocol.EventLeftConversation)
}

func TestSocketRoleGate(t *testing.T) {
	s := newStack(t, conversationK())
	sup := s.dial(t, supervisor)

	sup.send(protocol.EventJoinConversation, join("K"))
	sup.expectError("forbidden for this role")

	sup.send(protocol.EventNewMessage, protocol.NewMessage{ConversationID: "K", Content: "hi"})
	sup.expectError("forbidden for this role")

	other := s.dial(t, stranger)
	other.send(protocol.EventJoinConversation, join("K"))
	other.expectError("not authorized for this conversation")
}

func TestSocketReplacedAndDisconnected(t *testing.T) {
	s := newStack(t, conversationK())

	first := s.dial(t, candidate)
	first.send(protocol.EventJoinConversation, join("K"))
	first.expect(protocol.EventJoinedConversation)

	second := s.dial(t, candidate)
	first.expectClose(realtime.CloseSessionReplaced)
	require.Eventually(t, func() bool {
		return s.router.Members(chat.RoomName("K")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	second.send(protocol.EventJoinConversation, join("K"))
	second.expect(protocol.EventJoinedConversation)
	require.Equal(t, 1, s.router.Members(chat.RoomName("K")))

	require.NoError(t, second.ws.Close())
	require.Eventually(t, func() bool {
		return s.router.Members(chat.RoomName("K")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *stack) do(t *testing.T, method, path string, id *chat.Identity) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, nil)
	require.NoError(t, err)
	if id != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *id))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestGetConversationEndpoint(t *testing.T) {
	s := newStack(t, conversationK())

	status, body := s.do(t, http.MethodGet, "/api/v1/conversations/K", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized: missing token", body["error"])

	c := s.dial(t, candidate)
	c.send(protocol.EventJoinConversation, join("K"))
	c.expect(protocol.EventJoinedConversation)
	c.send(protocol.EventNewMessage, protocol.NewMessage{ConversationID: "K", Content: "hello"})
	c.expect(protocol.EventNewMessage)

	status, body = s.do(t, http.MethodGet, "/api/v1/conversations/K", &supervisor)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "open", body["status"])
	assert.EqualValues(t, 1, body["count"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/conversations/K", &stranger)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/conversations/nope", &supervisor)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCloseConversationEndpoint(t *testing.T) {
	s := newStack(t, conversationK())

	status, _ := s.do(t, http.MethodPost, "/api/v1/conversations/K/close", &candidate)
	assert.Equal(t, http.StatusForbidden, status)

	c := s.dial(t, candidate)
	c.send(protocol.EventJoinConversation, join("K"))
	c.expect(protocol.EventJoinedConversation)

	status, body := s.do(t, http.MethodPost, "/api/v1/conversations/K/close", &supervisor)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"conversationId": "K", "status": "closed"}, body)
	c.expect(protocol.EventConversationClosed)

	status, body = s.do(t, http.MethodPost, "/api/v1/conversations/K/close", &supervisor)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid conversation state: conversation already closed", body["error"])
}
