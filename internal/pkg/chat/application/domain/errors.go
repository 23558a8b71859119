package chat

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced to a client wraps exactly one of these.
var (
	ErrFormat        = errors.New("chat: invalid message format")
	ErrNotFound      = errors.New("chat: not found")
	ErrForbiddenRole = errors.New("chat: forbidden for this role")
	ErrNotAuthorized = errors.New("chat: not authorized for this conversation")
	ErrInvalidState  = errors.New("chat: invalid conversation state")
	ErrNotJoined     = errors.New("chat: conversation not joined")
)

// Domain-level errors for conversation behaviors
var (
	ErrConversationNotFound = fmt.Errorf("%w: conversation not found", ErrNotFound)
	ErrNotYourConversation  = fmt.Errorf("%w: not allowed to access this conversation", ErrNotAuthorized)
	ErrWrongAgent           = fmt.Errorf("%w: only the assigned agent can do this", ErrNotAuthorized)
	ErrAlreadyClosed        = fmt.Errorf("%w: conversation already closed", ErrInvalidState)
	ErrNotYetAssigned       = fmt.Errorf("%w: conversation is not assigned yet", ErrInvalidState)
	ErrSessionInProgress    = fmt.Errorf("%w: conversation is still going on", ErrInvalidState)
	ErrMustJoinFirst        = fmt.Errorf("%w: you must join the conversation first", ErrNotJoined)
	ErrEmptyMessage         = fmt.Errorf("%w: missing content", ErrFormat)
	ErrMessageTooLong       = fmt.Errorf("%w: content too long", ErrFormat)
)
