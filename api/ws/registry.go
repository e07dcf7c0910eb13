package ws

// RoomRegistry is the authoritative in-memory record of which sessions are
// currently present in which room. A room exists iff it has at least one
// member; the entry is dropped the moment the last member leaves.
//
// The registry is not safe for concurrent use on its own: it is owned by
// the hub's Run goroutine, which serializes every mutation and the
// post-join member count read. That single-owner discipline is what makes
// "join, then read the count" atomic without per-room locks.
type RoomRegistry struct {
	rooms map[string]map[string]*Client
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]map[string]*Client),
	}
}

// Join adds the client's session to the room, creating the room on first
// join. Idempotent: re-joining is a no-op. Reports whether the session was
// newly added.
func (r *RoomRegistry) Join(room string, client *Client) bool {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[room] = members
	}

	if _, present := members[client.sessionId]; present {
		return false
	}
	members[client.sessionId] = client
	return true
}

// Leave removes the client's session from the room if present. When the
// removal empties the room its entry is deleted entirely.
func (r *RoomRegistry) Leave(room string, client *Client) (removed bool, emptied bool) {
	members, ok := r.rooms[room]
	if !ok {
		return false, false
	}
	if _, present := members[client.sessionId]; !present {
		return false, false
	}

	delete(members, client.sessionId)
	if len(members) == 0 {
		delete(r.rooms, room)
		return true, true
	}
	return true, false
}

// MemberCount returns 0 for rooms that do not exist.
func (r *RoomRegistry) MemberCount(room string) int {
	return len(r.rooms[room])
}

// Members returns the room's current clients keyed by session id. The
// returned map is the live set; callers must not retain it.
func (r *RoomRegistry) Members(room string) map[string]*Client {
	return r.rooms[room]
}
