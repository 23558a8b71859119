package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-recruitchat/internal/infrastructure/cache/cachetest"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/infrastructure/realtime/realtimetest"
	"go-recruitchat/internal/pkg/chat/application/arena"
	"go-recruitchat/internal/pkg/chat/application/buffer"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/persistence/repository/repositorytest"
)

const convID = "K"

var (
	candidate  = chat.Identity{UserID: "C", Role: chat.RoleCandidate}
	agent      = chat.Identity{UserID: "A", Role: chat.RoleAgent}
	otherAgent = chat.Identity{UserID: "A2", Role: chat.RoleAgent}
	supervisor = chat.Identity{UserID: "S", Role: chat.RoleSupervisor}
	admin      = chat.Identity{UserID: "root", Role: chat.RoleAdmin}
)

func strPtr(s string) *string { return &s }

func openConversation(agentID *string) chat.Conversation {
	return chat.Conversation{
		ID:           convID,
		CandidateID:  candidate.UserID,
		SupervisorID: supervisor.UserID,
		AgentID:      agentID,
		Status:       chat.StatusOpen,
		CreatedAt:    time.Now().UTC(),
	}
}

type counterIDs struct{ n atomic.Int64 }

func (c *counterIDs) Next() int64 { return c.n.Add(1) }

type recordingPublisher struct {
	mu     sync.Mutex
	closed []string
	err    error
}

func (p *recordingPublisher) PublishConversationClosed(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, id)
	return p.err
}

func (p *recordingPublisher) Published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.closed...)
}

type harness struct {
	repo      *repositorytest.Memory
	cache     *cachetest.Memory
	router    *realtime.Router
	buf       *buffer.MessageBuffer
	locks     *arena.Arena
	publisher *recordingPublisher

	join  *JoinConversationUseCase
	send  *SendMessageUseCase
	leave *LeaveConversationUseCase
	close *CloseConversationUseCase
	get   *GetConversationUseCase
	warm  *WarmTranscriptUseCase
}

func newHarness(t *testing.T, convs ...chat.Conversation) *harness {
	t.Helper()
	h := &harness{
		repo:      repositorytest.NewMemory(convs...),
		cache:     cachetest.NewMemory(),
		router:    realtime.NewRouter(),
		buf:       buffer.New(),
		locks:     arena.New(),
		publisher: &recordingPublisher{},
	}
	store := NewStore(h.repo, 50*time.Millisecond)
	transcripts := NewTranscriptCache(h.cache, time.Hour, nil)

	h.join = NewJoinConversationUseCase(store, h.router, h.buf, h.locks, nil)
	h.send = NewSendMessageUseCase(h.router, h.buf, h.locks, &counterIDs{}, 0)
	h.leave = NewLeaveConversationUseCase(h.router, h.locks)
	h.close = NewCloseConversationUseCase(store, h.router, h.buf, h.locks, h.publisher, nil)
	h.get = NewGetConversationUseCase(store, h.buf, transcripts)
	h.warm = NewWarmTranscriptUseCase(store, transcripts)
	t.Cleanup(h.router.Close)
	return h
}

func (h *harness) connect(t *testing.T, id chat.Identity) (*realtime.Connection, *realtimetest.Transport) {
	t.Helper()
	tr := realtimetest.NewTransport()
	conn := realtime.NewConnection(id, tr, 0)
	h.router.Attach(conn)
	return conn, tr
}

func (h *harness) mustJoin(t *testing.T, conn *realtime.Connection) {
	t.Helper()
	_, err := h.join.Execute(context.Background(), JoinConversationInput{Conn: conn, ConversationID: convID})
	require.NoError(t, err)
}

func (h *harness) mustSend(t *testing.T, conn *realtime.Connection, content string) *chat.Message {
	t.Helper()
	msg, err := h.send.Execute(context.Background(), SendMessageInput{Conn: conn, ConversationID: convID, Content: content})
	require.NoError(t, err)
	return msg
}

func waitEvents(t *testing.T, tr *realtimetest.Transport, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := tr.Events()
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond, "want %v, got %v", want, tr.Events())
}
