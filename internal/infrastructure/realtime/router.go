package realtime

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrDetached is returned when a room operation targets a connection that is no longer attached.
var ErrDetached = errors.New("realtime: connection is not attached")

// Router coordinates websocket sessions and logical rooms.
// It keeps one active Connection per user while allowing efficient fan-out
// to all members of a room. Both directions of membership are tracked so a
// disconnect can leave every room the session had joined.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]string                 // userID -> sessionID
	rooms        map[string]map[string]*Connection // room -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of rooms
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]string),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection for its user. If a previous session exists,
// it is detached from all its rooms and closed after the swap to enforce one
// active socket per user.
func (r *Router) Attach(conn *Connection) {
	var previous *Connection

	r.mu.Lock()
	if existingID, ok := r.userSessions[conn.UserID]; ok {
		if existing := r.sessions[existingID]; existing != nil {
			previous = existing
			r.detachLocked(existingID)
		}
	}

	r.sessions[conn.ID] = conn
	r.userSessions[conn.UserID] = conn.ID
	r.sessionRooms[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(CloseSessionReplaced, "session replaced")
	}
}

// Detach removes a connection from every room it joined and forgets it.
// It returns the rooms the connection was a member of.
func (r *Router) Detach(conn *Connection) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detachLocked(conn.ID)
}

// Join adds the connection to the room, creating the room if needed.
// Joining a room twice is a no-op.
func (r *Router) Join(room string, conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn.ID]; !ok {
		return ErrDetached
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		r.rooms[room] = members
	}
	members[conn.ID] = conn

	memberships := r.sessionRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.sessionRooms[conn.ID] = memberships
	}
	memberships[room] = struct{}{}
	return nil
}

// Leave removes the connection from the room and reports whether it was a member.
// An emptied room is deleted.
func (r *Router) Leave(room string, conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(room, conn.ID)
}

// IsMember reports whether conn currently belongs to room.
func (r *Router) IsMember(room string, conn *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][conn.ID]
	return ok
}

// Members returns the number of connections in room.
func (r *Router) Members(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// RoomsOf returns the rooms conn belongs to.
func (r *Router) RoomsOf(conn *Connection) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sessionRooms[conn.ID]))
	for room := range r.sessionRooms[conn.ID] {
		out = append(out, room)
	}
	return out
}

// Broadcast writes payload to all members of the room except exclude (may be nil).
// Members are snapshotted under the read lock and written outside it; a member
// whose connection is already closed is skipped. It returns the number of
// connections the payload was queued for.
func (r *Router) Broadcast(room string, payload []byte, exclude *Connection) int {
	r.mu.RLock()
	members := r.rooms[room]
	targets := make([]*Connection, 0, len(members))
	for _, conn := range members {
		if exclude != nil && conn.ID == exclude.ID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Dissolve removes every member from the room and deletes it.
// It returns how many members were removed.
func (r *Router) Dissolve(room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[room]
	for sessionID := range members {
		if memberships, ok := r.sessionRooms[sessionID]; ok {
			delete(memberships, room)
		}
	}
	delete(r.rooms, room)
	return len(members)
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]string)
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(websocket.CloseGoingAway, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID string) []string {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(r.sessions, sessionID)

	if current, ok := r.userSessions[conn.UserID]; ok && current == sessionID {
		delete(r.userSessions, conn.UserID)
	}

	left := make([]string, 0, len(r.sessionRooms[sessionID]))
	for room := range r.sessionRooms[sessionID] {
		left = append(left, room)
	}
	for _, room := range left {
		r.leaveLocked(room, sessionID)
	}
	delete(r.sessionRooms, sessionID)
	return left
}

func (r *Router) leaveLocked(room string, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	members := r.rooms[room]
	if members == nil {
		return false
	}
	if _, ok := members[sessionID]; !ok {
		return false
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if memberships, ok := r.sessionRooms[sessionID]; ok {
		delete(memberships, room)
	}
	return true
}
