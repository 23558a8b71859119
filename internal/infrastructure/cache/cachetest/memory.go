// Package cachetest provides an in-memory port.Cache for tests.
package cachetest

import (
	"context"
	"sync"
	"time"

	"go-recruitchat/internal/infrastructure/cache/port"
)

// Memory ignores TTLs. Err, when set, is returned by every call.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
	Err  error
}

var _ port.Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	v, ok := m.data[key]
	if !ok {
		return "", port.ErrMiss
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *Memory) Close() error { return nil }

// Keys returns the stored keys.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}
