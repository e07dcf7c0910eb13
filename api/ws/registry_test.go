package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_JoinCreatesRoom(t *testing.T) {
	reg := NewRoomRegistry()
	c1 := &Client{sessionId: "s1"}

	assert.Equal(t, 0, reg.MemberCount("r1"))

	added := reg.Join("r1", c1)
	assert.True(t, added)
	assert.Equal(t, 1, reg.MemberCount("r1"))
}

func TestRegistry_JoinIdempotent(t *testing.T) {
	reg := NewRoomRegistry()
	c1 := &Client{sessionId: "s1"}

	assert.True(t, reg.Join("r1", c1))
	assert.False(t, reg.Join("r1", c1))
	assert.Equal(t, 1, reg.MemberCount("r1"))
}

func TestRegistry_LeaveLastMemberRemovesRoom(t *testing.T) {
	reg := NewRoomRegistry()
	c1 := &Client{sessionId: "s1"}
	c2 := &Client{sessionId: "s2"}

	reg.Join("r1", c1)
	reg.Join("r1", c2)

	removed, emptied := reg.Leave("r1", c1)
	assert.True(t, removed)
	assert.False(t, emptied)
	assert.Equal(t, 1, reg.MemberCount("r1"))

	removed, emptied = reg.Leave("r1", c2)
	assert.True(t, removed)
	assert.True(t, emptied)

	// Room entry is gone entirely, not just empty
	assert.Equal(t, 0, reg.MemberCount("r1"))
	assert.Nil(t, reg.Members("r1"))
}

func TestRegistry_LeaveNonMember(t *testing.T) {
	reg := NewRoomRegistry()
	c1 := &Client{sessionId: "s1"}
	c2 := &Client{sessionId: "s2"}

	reg.Join("r1", c1)

	removed, emptied := reg.Leave("r1", c2)
	assert.False(t, removed)
	assert.False(t, emptied)
	assert.Equal(t, 1, reg.MemberCount("r1"))

	removed, emptied = reg.Leave("missing", c1)
	assert.False(t, removed)
	assert.False(t, emptied)
}

func TestRegistry_MembersKeyedBySession(t *testing.T) {
	reg := NewRoomRegistry()
	c1 := &Client{sessionId: "s1"}
	c2 := &Client{sessionId: "s2"}

	reg.Join("r1", c1)
	reg.Join("r1", c2)

	members := reg.Members("r1")
	assert.Len(t, members, 2)
	assert.Same(t, c1, members["s1"])
	assert.Same(t, c2, members["s2"])
}
