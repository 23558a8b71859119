package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	qport "go-recruitchat/internal/infrastructure/queue/port"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/application/usecase"
)

// ConversationClosedTaskType is the queue task emitted once a conversation reaches closed.
const ConversationClosedTaskType = "chat:conversation_closed"

// ConversationClosedQueue is the queue the task is enqueued on.
const ConversationClosedQueue = "chat"

// ConversationClosedTaskPayload is the JSON payload transported via the queue.
type ConversationClosedTaskPayload struct {
	ConversationID string `json:"conversationId"`
}

// Publisher enqueues ConversationClosed tasks. It satisfies usecase.ClosedPublisher.
type Publisher struct {
	Client qport.Client
}

func NewPublisher(client qport.Client) *Publisher {
	return &Publisher{Client: client}
}

var _ usecase.ClosedPublisher = (*Publisher)(nil)

func (p *Publisher) PublishConversationClosed(ctx context.Context, conversationID string) error {
	payload, err := json.Marshal(ConversationClosedTaskPayload{ConversationID: conversationID})
	if err != nil {
		return err
	}
	_, err = p.Client.Enqueue(ctx, qport.Task{Type: ConversationClosedTaskType, Payload: payload}, qport.Delivery{
		Queue:     ConversationClosedQueue,
		MaxRetry:  5,
		Timeout:   30 * time.Second,
		UniqueTTL: time.Minute,
	})
	return err
}

// RegisterConversationClosedTask binds the task handler to the provided server.
// The handler warms the transcript cache for the closed conversation.
func RegisterConversationClosedTask(srv qport.Server, uc *usecase.WarmTranscriptUseCase, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "chat.task")

	srv.Register(ConversationClosedTaskType, func(ctx context.Context, t qport.Task) error {
		var p ConversationClosedTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil || p.ConversationID == "" {
			// malformed payload: do not retry
			return fmt.Errorf("%w: bad payload %q", asynq.SkipRetry, t.Payload)
		}

		n, err := uc.Execute(ctx, p.ConversationID)
		if errors.Is(err, chat.ErrNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		if err != nil {
			// The retry/backoff policy is controlled by the adapter/server.
			return err
		}
		logger.DebugContext(ctx, "transcript cached", "conversation_id", p.ConversationID, "messages", n)
		return nil
	})
}
