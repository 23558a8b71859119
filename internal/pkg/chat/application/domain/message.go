package chat

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultMaxContentLength bounds message content when no limit is configured.
const DefaultMaxContentLength = 4000

// Message is an immutable log entry in a conversation
type Message struct {
	ID             int64     `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	SenderRole     Role      `db:"sender_role"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

// NewMessage validates and normalizes a message before it is buffered.
// Content is trimmed; a zero CreatedAt is stamped with the current time.
// maxLen <= 0 falls back to DefaultMaxContentLength.
func NewMessage(m Message, maxLen int) (*Message, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxContentLength
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(m.Content) > maxLen {
		return nil, ErrMessageTooLong
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}
