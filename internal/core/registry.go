package core

// Registry maps room ids to the sockets currently joined to them. It is an
// explicit owned object rather than package state so tests can run several
// independent hubs. All methods are called from the hub goroutine only.
type Registry struct {
	rooms map[string]map[*Client]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Client]struct{})}
}

// Join adds the client to roomID, moving it out of any previous room.
// A socket is joined to at most one room; repeated joins are idempotent.
func (r *Registry) Join(roomID string, c *Client) {
	if c.room == roomID {
		return
	}
	r.Leave(c)

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomID] = members
	}
	members[c] = struct{}{}
	c.room = roomID
}

// Leave removes the client from its current room, if any. Empty rooms are
// dropped; a room has no existence beyond its connected sockets.
func (r *Registry) Leave(c *Client) {
	if c.room == "" {
		return
	}
	if members, ok := r.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, c.room)
		}
	}
	c.room = ""
}

// Broadcast queues an event to every socket joined to roomID, including
// the sender's own connections. It returns the members whose buffers were
// full so the hub can drop them as slow consumers.
func (r *Registry) Broadcast(roomID string, event *Event) []*Client {
	var slow []*Client
	for client := range r.rooms[roomID] {
		if !client.send(event) {
			slow = append(slow, client)
		}
	}
	return slow
}

// Members returns the number of sockets joined to roomID.
func (r *Registry) Members(roomID string) int {
	return len(r.rooms[roomID])
}

// send queues an event without blocking and reports whether it was
// accepted. A gone socket counts as delivered; its channel is closed.
func (c *Client) send(event *Event) bool {
	if c.gone {
		return true
	}
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
