package chat

import "time"

// Status is the lifecycle state of a conversation.
// open -> assigned -> closed, or open -> closed. closed is terminal.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAssigned Status = "assigned"
	StatusClosed   Status = "closed"
)

// RoomPrefix prefixes the realtime room of every conversation.
const RoomPrefix = "conversation:"

// Conversation pairs a candidate with an agent under a supervisor.
// Records are created and assigned elsewhere; this package only advances Status.
type Conversation struct {
	ID           string    `db:"id"`
	CandidateID  string    `db:"candidate_id"`
	SupervisorID string    `db:"supervisor_id"`
	AgentID      *string   `db:"agent_id"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

// RoomName returns the broadcast room for a conversation id.
func RoomName(conversationID string) string {
	return RoomPrefix + conversationID
}

// Room returns the broadcast room of c.
func (c *Conversation) Room() string {
	return RoomName(c.ID)
}

// IsAgent tells whether userID is the agent recorded on the conversation.
func (c *Conversation) IsAgent(userID string) bool {
	return c.AgentID != nil && *c.AgentID != "" && *c.AgentID == userID
}

// Involves reports whether id has a relationship to the conversation
// matching its role. Admins are involved in every conversation.
func (c *Conversation) Involves(id Identity) bool {
	switch id.Role {
	case RoleAdmin:
		return true
	case RoleCandidate:
		return c.CandidateID == id.UserID
	case RoleSupervisor:
		return c.SupervisorID == id.UserID
	case RoleAgent:
		return c.IsAgent(id.UserID)
	}
	return false
}
