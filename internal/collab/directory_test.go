package collab

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomDirectory_Join(t *testing.T) {
	t.Run("first join creates the room entry", func(t *testing.T) {
		d := NewRoomDirectory()

		created, prunedPrev := d.Join(1, "conn-a")
		assert.True(t, created, "expected first join to create the room entry")
		assert.False(t, prunedPrev, "expected no prior room to prune")
		assert.ElementsMatch(t, []string{"conn-a"}, d.MembersOf(1))

		created, _ = d.Join(1, "conn-b")
		assert.False(t, created, "expected second join to reuse the room entry")
		assert.Equal(t, 2, d.Count(1), "expected both connections in the room")
	})

	t.Run("joining a second room moves the connection", func(t *testing.T) {
		d := NewRoomDirectory()

		d.Join(1, "conn-a")
		created, prunedPrev := d.Join(2, "conn-a")
		assert.True(t, created, "expected new room entry")
		assert.True(t, prunedPrev, "expected prior room to be pruned when it emptied")

		assert.Empty(t, d.MembersOf(1), "expected connection to be gone from the first room")
		assert.ElementsMatch(t, []string{"conn-a"}, d.MembersOf(2))

		roomId, ok := d.RoomOf("conn-a")
		assert.True(t, ok)
		assert.Equal(t, 2, roomId, "expected reverse index to follow the move")
	})

	t.Run("rejoining the same room is a no-op", func(t *testing.T) {
		d := NewRoomDirectory()

		d.Join(1, "conn-a")
		created, prunedPrev := d.Join(1, "conn-a")
		assert.False(t, created)
		assert.False(t, prunedPrev)
		assert.Equal(t, 1, d.Count(1), "expected a single membership entry")
	})
}

func TestRoomDirectory_Leave(t *testing.T) {
	t.Run("leave prunes an emptied room", func(t *testing.T) {
		d := NewRoomDirectory()

		d.Join(1, "conn-a")
		d.Join(1, "conn-b")

		pruned := d.Leave(1, "conn-a")
		assert.False(t, pruned, "expected room to survive while conn-b remains")

		pruned = d.Leave(1, "conn-b")
		assert.True(t, pruned, "expected empty room entry to be pruned")
		assert.Zero(t, d.RoomCount(), "expected no dangling room entries")
	})

	t.Run("leave of a room the connection is not in", func(t *testing.T) {
		d := NewRoomDirectory()

		d.Join(1, "conn-a")
		pruned := d.Leave(2, "conn-a")
		assert.False(t, pruned, "expected mismatched leave to be a no-op")
		assert.Equal(t, 1, d.Count(1), "expected membership to be unchanged")
	})

	t.Run("leave of an unknown connection", func(t *testing.T) {
		d := NewRoomDirectory()

		assert.False(t, d.Leave(1, "ghost"), "expected leave of unknown conn to be a no-op")
	})
}

func TestRoomDirectory_MembersOf(t *testing.T) {
	d := NewRoomDirectory()

	assert.Empty(t, d.MembersOf(9), "expected empty snapshot for unknown room")

	d.Join(9, "conn-a")
	members := d.MembersOf(9)
	d.Join(9, "conn-b")

	// the earlier snapshot must not observe the later join
	assert.ElementsMatch(t, []string{"conn-a"}, members)
	assert.ElementsMatch(t, []string{"conn-a", "conn-b"}, d.MembersOf(9))
}

// each connection must appear in at most one room's live set, even under
// concurrent joins bouncing between rooms
func TestRoomDirectory_SingleRoomInvariant(t *testing.T) {
	d := NewRoomDirectory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connId := fmt.Sprintf("conn-%d", i)
			for room := 1; room <= 10; room++ {
				d.Join(room, connId)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]int)
	for room := 1; room <= 10; room++ {
		for _, connId := range d.MembersOf(room) {
			seen[connId]++
		}
	}

	for connId, count := range seen {
		assert.Equalf(t, 1, count, "expected %s to be in exactly one room, found %d", connId, count)
	}
	assert.Len(t, seen, 20, "expected every connection to end up in a room")
}
