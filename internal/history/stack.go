package history

// DefaultCapacity bounds how many surface snapshots are retained.
const DefaultCapacity = 50

// Stack is a linear undo/redo history of opaque surface snapshots. The cursor
// points at the snapshot representing the current surface; -1 means no
// snapshot has been materialized yet. The stack is purely local state and is
// never broadcast to collaborators.
type Stack struct {
	snapshots [][]byte
	cursor    int
	capacity  int
}

// New creates an empty stack with the default capacity.
func New() *Stack {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates an empty stack bounded to the given size.
func NewWithCapacity(capacity int) *Stack {
	return &Stack{cursor: -1, capacity: capacity}
}

// Push appends a snapshot at the cursor, discarding any redo branch beyond
// it. When the stack exceeds its capacity the oldest snapshot is evicted and
// the cursor shifts down so it keeps pointing at the newest entry.
func (s *Stack) Push(snapshot []byte) {
	s.cursor++
	if s.cursor < len(s.snapshots) {
		s.snapshots = s.snapshots[:s.cursor]
	}
	s.snapshots = append(s.snapshots, snapshot)

	if len(s.snapshots) > s.capacity {
		s.snapshots = s.snapshots[1:]
		s.cursor--
	}
}

// Undo steps the cursor back and returns the snapshot to restore. It reports
// false when there is nothing earlier to go back to.
func (s *Stack) Undo() ([]byte, bool) {
	if s.cursor <= 0 {
		return nil, false
	}
	s.cursor--
	return s.snapshots[s.cursor], true
}

// Redo steps the cursor forward and returns the snapshot to restore. It
// reports false when the cursor is already at the newest snapshot.
func (s *Stack) Redo() ([]byte, bool) {
	if s.cursor >= len(s.snapshots)-1 {
		return nil, false
	}
	s.cursor++
	return s.snapshots[s.cursor], true
}

// Current returns the snapshot at the cursor, if any.
func (s *Stack) Current() ([]byte, bool) {
	if s.cursor < 0 {
		return nil, false
	}
	return s.snapshots[s.cursor], true
}

// Reset drops all snapshots, e.g. after the surface is cleared.
func (s *Stack) Reset() {
	s.snapshots = nil
	s.cursor = -1
}

// Len returns the number of retained snapshots.
func (s *Stack) Len() int {
	return len(s.snapshots)
}

// Cursor returns the current cursor position.
func (s *Stack) Cursor() int {
	return s.cursor
}
