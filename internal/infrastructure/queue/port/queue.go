package port

import (
	"context"
	"time"
)

// Task is a background job: a stable type name plus an opaque payload the
// producer and the handler agree on.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error asks the backend to retry, so
// handlers must tolerate running more than once for the same task.
type Handler func(ctx context.Context, task Task) error

// Delivery tunes how one task is enqueued. Zero values keep the backend default.
type Delivery struct {
	Queue     string
	MaxRetry  int
	Timeout   time.Duration // per-attempt processing budget
	UniqueTTL time.Duration // drop duplicates of the same type+payload within this window
}

// Client enqueues tasks.
type Client interface {
	Enqueue(ctx context.Context, t Task, d Delivery) (id string, err error)
	Close() error
}

// Server runs the registered handlers until its context is canceled.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
}
