package chat

// Role is the platform role carried by a verified identity.
type Role string

const (
	RoleCandidate  Role = "candidate"
	RoleSupervisor Role = "supervisor"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleSupervisor, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Identity is the {userId, role} pair resolved at connect time.
type Identity struct {
	UserID string
	Role   Role
}

// Action is something an identity can attempt against a conversation.
type Action string

const (
	ActionJoin    Action = "join"
	ActionSend    Action = "send"
	ActionLeave   Action = "leave"
	ActionClose   Action = "close"
	ActionAbandon Action = "abandon"
	ActionRead    Action = "read"
)

// capabilities is the role/action table. Handlers assume it has been checked.
var capabilities = map[Role]map[Action]bool{
	RoleCandidate: {
		ActionJoin:  true,
		ActionSend:  true,
		ActionLeave: true,
		ActionRead:  true,
	},
	RoleAgent: {
		ActionJoin:  true,
		ActionSend:  true,
		ActionLeave: true,
		ActionClose: true,
		ActionRead:  true,
	},
	RoleSupervisor: {
		ActionLeave:   true,
		ActionAbandon: true,
		ActionRead:    true,
	},
	RoleAdmin: {
		ActionLeave:   true,
		ActionAbandon: true,
		ActionRead:    true,
	},
}

// Can reports whether role may attempt action at all. Relationship checks
// against a specific conversation happen later, in the lifecycle guards.
func Can(role Role, action Action) bool {
	return capabilities[role][action]
}
