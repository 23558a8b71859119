// Package realtimetest provides an in-memory websocket transport for tests.
package realtimetest

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one outbound envelope as seen by a client.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Transport records every text frame written to it.
type Transport struct {
	mu        sync.Mutex
	frames    [][]byte
	closed    bool
	closeCode int
	failWrite bool
}

// NewTransport returns an empty recording transport.
func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) SetWriteDeadline(time.Time) error { return nil }

func (t *Transport) WriteMessage(messageType int, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWrite || t.closed {
		return websocket.ErrCloseSent
	}
	if messageType == websocket.TextMessage {
		cp := make([]byte, len(data))
		copy(cp, data)
		t.frames = append(t.frames, cp)
	}
	return nil
}

func (t *Transport) WriteControl(messageType int, data []byte, _ time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		t.closeCode = int(data[0])<<8 | int(data[1])
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// FailWrites makes every subsequent write fail, as a half-closed socket would.
func (t *Transport) FailWrites() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failWrite = true
}

// Closed reports whether Close was called and the close code that was sent.
func (t *Transport) Closed() (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed, t.closeCode
}

// Frames decodes every text frame written so far.
func (t *Transport) Frames() []Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Frame, 0, len(t.frames))
	for _, raw := range t.frames {
		var f Frame
		if err := json.Unmarshal(raw, &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// Events returns the event names of every frame written so far.
func (t *Transport) Events() []string {
	frames := t.Frames()
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}
