package collab

import (
	"errors"
	"sync"
	"time"

	"github.com/luigipascal/blackthorn-server/internal/types"
)

var (
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")
	ErrNotAuthenticated     = errors.New("connection not authenticated")
)

// Session is the ephemeral state bound to one live connection. It exists
// only inside the ConnectionRegistry and is never persisted.
type Session struct {
	ConnId      string
	User        types.User
	RoomId      int
	ConnectedAt time.Time
}

// ConnectionRegistry is the process-wide table of authenticated
// connections. Instances are independent; tests create their own.
type ConnectionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Register binds an identity to a connection. Registering the same
// connection twice is an error.
func (r *ConnectionRegistry) Register(connId string, user types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connId]; ok {
		return ErrAlreadyAuthenticated
	}

	r.sessions[connId] = &Session{
		ConnId:      connId,
		User:        user,
		ConnectedAt: time.Now().UTC(),
	}

	return nil
}

// Lookup returns a copy of the session bound to connId.
func (r *ConnectionRegistry) Lookup(connId string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connId]
	if !ok {
		return Session{}, ErrNotAuthenticated
	}

	return *sess, nil
}

// SetRoom records the connection's current room, last write wins.
// A roomId of 0 means the connection is in no room.
func (r *ConnectionRegistry) SetRoom(connId string, roomId int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[connId]; ok {
		sess.RoomId = roomId
	}
}

// Remove deletes all state for the connection. Removing an unknown
// connection is a no-op.
func (r *ConnectionRegistry) Remove(connId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connId)
}

func (r *ConnectionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
