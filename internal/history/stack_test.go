package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackUndoRedo(t *testing.T) {
	s := New()
	s.Push([]byte("s0"))
	s.Push([]byte("s1"))
	s.Push([]byte("s2"))

	snap, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, []byte("s1"), snap)

	snap, ok = s.Undo()
	require.True(t, ok)
	assert.Equal(t, []byte("s0"), snap)

	// Bottom of the stack: undo is a no-op.
	_, ok = s.Undo()
	assert.False(t, ok)

	snap, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, []byte("s1"), snap)

	snap, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, []byte("s2"), snap)

	// Top of the stack: redo is a no-op.
	_, ok = s.Redo()
	assert.False(t, ok)
}

func TestStackEmptyIsNoOp(t *testing.T) {
	s := New()

	_, ok := s.Undo()
	assert.False(t, ok)
	_, ok = s.Redo()
	assert.False(t, ok)
	_, ok = s.Current()
	assert.False(t, ok)
}

// Pushing after an undo discards the redo branch: [s0,s1,s2] undone to s1
// then pushed s3 becomes [s0,s1,s3].
func TestStackPushDiscardsRedoBranch(t *testing.T) {
	s := New()
	s.Push([]byte("s0"))
	s.Push([]byte("s1"))
	s.Push([]byte("s2"))

	_, ok := s.Undo()
	require.True(t, ok)

	s.Push([]byte("s3"))

	_, ok = s.Redo()
	assert.False(t, ok, "redo branch should be gone")

	snap, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, []byte("s1"), snap)

	snap, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, []byte("s3"), snap)
	assert.Equal(t, 3, s.Len())
}

func TestStackEvictsOldestAtCapacity(t *testing.T) {
	s := NewWithCapacity(3)
	for i := 0; i < 5; i++ {
		s.Push([]byte(fmt.Sprintf("s%d", i)))
	}

	assert.Equal(t, 3, s.Len())

	// Walking all the way back lands on the oldest retained snapshot.
	var last []byte
	for {
		snap, ok := s.Undo()
		if !ok {
			break
		}
		last = snap
	}
	assert.Equal(t, []byte("s2"), last)

	// The newest snapshot is still reachable by redo.
	var newest []byte
	for {
		snap, ok := s.Redo()
		if !ok {
			break
		}
		newest = snap
	}
	assert.Equal(t, []byte("s4"), newest)
}

func TestStackDefaultCapacity(t *testing.T) {
	s := New()
	for i := 0; i < DefaultCapacity+10; i++ {
		s.Push([]byte{byte(i)})
	}
	assert.Equal(t, DefaultCapacity, s.Len())
}

func TestStackReset(t *testing.T) {
	s := New()
	s.Push([]byte("s0"))
	s.Push([]byte("s1"))

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, -1, s.Cursor())
	_, ok := s.Undo()
	assert.False(t, ok)
}
