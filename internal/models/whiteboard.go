package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sketchrelay/sketchrelay/internal/board"
)

// Whiteboard is a shared drawing session. Collaborators are stored by
// username; the owner always has access. Elements holds the saved drawing
// event log when loaded through the element repository.
type Whiteboard struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	Collaborators []string      `json:"collaborators"`
	Elements      []board.Event `json:"elements"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CanAccess reports whether the user may view or draw on the whiteboard.
func (w *Whiteboard) CanAccess(userID uuid.UUID, username string) bool {
	if w.OwnerID == userID {
		return true
	}
	for _, c := range w.Collaborators {
		if c == username {
			return true
		}
	}
	return false
}
