package chat

import "fmt"

// allowed lists every legal status transition.
var allowed = map[Status][]Status{
	StatusOpen:     {StatusAssigned, StatusClosed},
	StatusAssigned: {StatusClosed},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (c *Conversation) advance(to Status) error {
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, c.Status, to)
	}
	c.Status = to
	return nil
}

// AuthorizeJoin checks that id may enter the conversation room.
// Only the conversation's own candidate and its recorded agent may join,
// and never once the conversation is closed.
func (c *Conversation) AuthorizeJoin(id Identity) error {
	switch id.Role {
	case RoleCandidate:
		if c.CandidateID != id.UserID {
			return ErrNotYourConversation
		}
	case RoleAgent:
		if !c.IsAgent(id.UserID) {
			return ErrNotYourConversation
		}
	default:
		return ErrForbiddenRole
	}
	if c.Status == StatusClosed {
		return ErrAlreadyClosed
	}
	return nil
}

// ActivateOnJoin moves an open conversation to assigned when its recorded
// agent joins. It reports whether the status changed; joining an assigned
// conversation again is a no-op.
func (c *Conversation) ActivateOnJoin(id Identity) bool {
	if id.Role != RoleAgent || !c.IsAgent(id.UserID) || c.Status != StatusOpen {
		return false
	}
	return c.advance(StatusAssigned) == nil
}

// Complete closes a live session. Only the assigned agent may do it and
// only while the conversation is assigned.
func (c *Conversation) Complete(id Identity) error {
	if id.Role != RoleAgent {
		return ErrForbiddenRole
	}
	if !c.IsAgent(id.UserID) {
		return ErrWrongAgent
	}
	switch c.Status {
	case StatusOpen:
		return ErrNotYetAssigned
	case StatusClosed:
		return ErrAlreadyClosed
	}
	return c.advance(StatusClosed)
}

// Abandon closes a conversation that never went live. The owning supervisor
// or any admin may do it, and only while the conversation is still open.
func (c *Conversation) Abandon(id Identity) error {
	switch id.Role {
	case RoleAdmin:
	case RoleSupervisor:
		if c.SupervisorID != id.UserID {
			return ErrNotYourConversation
		}
	default:
		return ErrForbiddenRole
	}
	switch c.Status {
	case StatusAssigned:
		return ErrSessionInProgress
	case StatusClosed:
		return ErrAlreadyClosed
	}
	return c.advance(StatusClosed)
}
