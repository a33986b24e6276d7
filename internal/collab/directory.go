package collab

import "sync"

// RoomDirectory maps room ids to the set of connections currently joined.
// A connection belongs to at most one live room at a time; joining a new
// room atomically removes the connection from its previous one. Empty
// room entries are pruned immediately.
type RoomDirectory struct {
	mu     sync.Mutex
	rooms  map[int]map[string]struct{}
	byConn map[string]int
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{
		rooms:  make(map[int]map[string]struct{}),
		byConn: make(map[string]int),
	}
}

// Join adds the connection to the room's live set, moving it out of any
// prior room in the same critical section. It reports whether this call
// created the room entry and whether it pruned the prior room's entry.
func (d *RoomDirectory) Join(roomId int, connId string) (created, prunedPrev bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.byConn[connId]; ok {
		if prev == roomId {
			return false, false
		}
		prunedPrev = d.removeLocked(prev, connId)
	}

	if d.rooms[roomId] == nil {
		d.rooms[roomId] = make(map[string]struct{})
		created = true
	}
	d.rooms[roomId][connId] = struct{}{}
	d.byConn[connId] = roomId

	return created, prunedPrev
}

// Leave removes the connection from the room's live set and reports
// whether the room entry was pruned because it became empty.
func (d *RoomDirectory) Leave(roomId int, connId string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.byConn[connId] != roomId {
		return false
	}
	delete(d.byConn, connId)

	return d.removeLocked(roomId, connId)
}

func (d *RoomDirectory) removeLocked(roomId int, connId string) bool {
	members, ok := d.rooms[roomId]
	if !ok {
		return false
	}

	delete(members, connId)
	if len(members) == 0 {
		delete(d.rooms, roomId)
		return true
	}

	return false
}

// MembersOf returns a snapshot of the connections currently in the room.
func (d *RoomDirectory) MembersOf(roomId int) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	members := make([]string, 0, len(d.rooms[roomId]))
	for connId := range d.rooms[roomId] {
		members = append(members, connId)
	}

	return members
}

// RoomOf returns the room the connection is currently in, if any.
func (d *RoomDirectory) RoomOf(connId string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	roomId, ok := d.byConn[connId]
	return roomId, ok
}

func (d *RoomDirectory) Count(roomId int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.rooms[roomId])
}

func (d *RoomDirectory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.rooms)
}
