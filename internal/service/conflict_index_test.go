package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictIndexBlocksDoubleBooking(t *testing.T) {
	idx := NewConflictIndex()

	assert.True(t, idx.IsFree(1, "p1", "trainer-1", "class-1", "room-1"))
	idx.Commit(1, "p1", "trainer-1", "class-1", "room-1")

	// Same trainer, different class and room.
	assert.False(t, idx.IsFree(1, "p1", "trainer-1", "class-2", "room-2"))
	// Same class, different trainer and room.
	assert.False(t, idx.IsFree(1, "p1", "trainer-2", "class-1", "room-2"))
	// Same room, different trainer and class.
	assert.False(t, idx.IsFree(1, "p1", "trainer-2", "class-2", "room-1"))

	// All-different occupants share the cell freely.
	assert.True(t, idx.IsFree(1, "p1", "trainer-2", "class-2", "room-2"))
	// Other period and other day are untouched.
	assert.True(t, idx.IsFree(1, "p2", "trainer-1", "class-1", "room-1"))
	assert.True(t, idx.IsFree(2, "p1", "trainer-1", "class-1", "room-1"))
}

func TestConflictIndexRelease(t *testing.T) {
	idx := NewConflictIndex()

	idx.Commit(3, "p2", "trainer-1", "class-1", "room-1")
	assert.False(t, idx.IsFree(3, "p2", "trainer-1", "class-9", "room-9"))

	idx.Release(3, "p2", "trainer-1", "class-1", "room-1")
	assert.True(t, idx.IsFree(3, "p2", "trainer-1", "class-1", "room-1"))
}
