package collab

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/luigipascal/blackthorn-server/internal/auth"
	"github.com/luigipascal/blackthorn-server/internal/database"
	"github.com/luigipascal/blackthorn-server/internal/stats"
)

const (
	StatActiveConnections        = "ActiveConnections"
	StatActiveRooms              = "ActiveRooms"
	StatEventsRouted             = "EventsRouted"
	StatBroadcastsSent           = "BroadcastsSent"
	StatParticipantTouchFailures = "ParticipantTouchFailures"
)

// CollabServer is the real-time collaboration session manager. It owns
// the connection registry and room directory, routes inbound events and
// fans results out to room members.
type CollabServer struct {
	log           *log.Logger
	db            database.ManorRepository
	authenticator *auth.SessionAuthenticator
	registry      *ConnectionRegistry
	directory     *RoomDirectory
	stats         stats.StatsProvider
	clients       map[string]*Client
	clientsLock   sync.Mutex
	roomLocks     map[int]*sync.Mutex
	roomLocksMu   sync.Mutex
	ids           *shortid.Shortid
}

func NewCollabServer(logger *log.Logger, db database.ManorRepository, authenticator *auth.SessionAuthenticator, su stats.StatsProvider) (*CollabServer, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, fmt.Errorf("shortid: %w", err)
	}

	for _, name := range []string{
		StatActiveConnections,
		StatActiveRooms,
		StatEventsRouted,
		StatBroadcastsSent,
		StatParticipantTouchFailures,
	} {
		su.RegisterMetric(name)
	}

	return &CollabServer{
		log:           logger,
		db:            db,
		authenticator: authenticator,
		registry:      NewConnectionRegistry(),
		directory:     NewRoomDirectory(),
		stats:         su,
		clients:       make(map[string]*Client),
		roomLocks:     make(map[int]*sync.Mutex),
		ids:           sid,
	}, nil
}

// NewClient wraps an upgraded websocket connection and tracks it until
// its read pump exits.
func (s *CollabServer) NewClient(conn *websocket.Conn) *Client {
	c := &Client{
		id:     s.nextId(),
		conn:   conn,
		server: s,
		log:    s.log,
		send:   make(chan *ServerEvent, 256),
		stop:   make(chan struct{}),
	}

	s.clientsLock.Lock()
	s.clients[c.id] = c
	s.clientsLock.Unlock()

	s.stats.Incr(StatActiveConnections)
	return c
}

func (s *CollabServer) nextId() string {
	id, err := s.ids.Generate()
	if err != nil {
		// shortid only fails when the clock goes badly wrong
		return fmt.Sprintf("conn-%d", time.Now().UnixNano())
	}
	return id
}

func (s *CollabServer) getClient(connId string) *Client {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	return s.clients[connId]
}

func (s *CollabServer) removeClient(connId string) {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	delete(s.clients, connId)
}

// roomLock returns the fan-out lock for the room, creating it on first
// use. Entries live for the process; the table is bounded by the number
// of distinct rooms seen.
func (s *CollabServer) roomLock(roomId int) *sync.Mutex {
	s.roomLocksMu.Lock()
	defer s.roomLocksMu.Unlock()

	mu, ok := s.roomLocks[roomId]
	if !ok {
		mu = &sync.Mutex{}
		s.roomLocks[roomId] = mu
	}

	return mu
}

// Broadcast delivers an event to every connection currently in the room,
// skipping excludeConnId when non-empty. Delivery per recipient is
// best-effort; a failed or disconnected recipient never aborts the rest.
// Concurrent broadcasts to the same room serialize on the room's fan-out
// lock, so all members observe them in a single order; broadcasts to
// different rooms do not block each other.
func (s *CollabServer) Broadcast(roomId int, ev *ServerEvent, excludeConnId string) {
	mu := s.roomLock(roomId)
	mu.Lock()
	defer mu.Unlock()

	for _, connId := range s.directory.MembersOf(roomId) {
		if connId == excludeConnId {
			continue
		}

		c := s.getClient(connId)
		if c == nil {
			// disconnected between snapshot and delivery
			continue
		}

		c.queueEvent(ev)
	}

	s.stats.Incr(StatBroadcastsSent)
}

// Shutdown closes every live connection and waits for their read pumps
// to finish tearing down, or for ctx to expire.
func (s *CollabServer) Shutdown(ctx context.Context) error {
	s.clientsLock.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsLock.Unlock()

	for _, c := range clients {
		c.close()
		c.conn.Close()
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		s.clientsLock.Lock()
		remaining := len(s.clients)
		s.clientsLock.Unlock()

		if remaining == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("collab server shutdown: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
