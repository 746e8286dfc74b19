package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sketchrelay/sketchrelay/internal/board"
)

// StoredElement is one drawing event persisted to a whiteboard's append-only
// log. Seq orders elements for replay on load.
type StoredElement struct {
	ID           uuid.UUID   `json:"id"`
	WhiteboardID uuid.UUID   `json:"whiteboard_id"`
	UserID       uuid.UUID   `json:"user_id"`
	Seq          int64       `json:"seq"`
	Event        board.Event `json:"event"`
	CreatedAt    time.Time   `json:"created_at"`
}
