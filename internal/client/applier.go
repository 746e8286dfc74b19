package client

import (
	"log"

	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// The Controller is the wire.Handler for its channel: inbound drawing events
// are replayed onto the local surface, presence notices update the roster,
// signaling passes through. Nothing received here is ever re-broadcast.

// HandleDrawing validates and applies a collaborator's drawing event, then
// pushes a history snapshot so the new state is undoable.
func (c *Controller) HandleDrawing(msg wire.DrawingData) {
	ev := msg.Data
	if err := ev.Validate(); err != nil {
		log.Printf("client: dropping malformed remote event: %v", err)
		return
	}
	if err := c.render(ev); err != nil {
		log.Printf("client: failed to apply remote event: %v", err)
		return
	}
	c.pushSnapshot()
}

// HandleUserJoined adds the collaborator to the roster.
func (c *Controller) HandleUserJoined(msg wire.UserJoined) {
	c.registry.Upsert(msg.UserID, msg.UserInfo.Username)
}

// HandleUserLeft removes the collaborator from the roster.
func (c *Controller) HandleUserLeft(msg wire.UserLeft) {
	c.registry.Remove(msg.UserID)
}

// HandleCurrentUsers folds the initial roster into the registry. Upsert is
// idempotent, so a later user_joined for the same id cannot duplicate it.
func (c *Controller) HandleCurrentUsers(msg wire.CurrentUsers) {
	for _, u := range msg.Users {
		c.registry.Upsert(u.UserID, u.UserInfo.Username)
	}
}

// HandleSignal forwards a signaling envelope to the external collaborator.
func (c *Controller) HandleSignal(msg wire.Signal) {
	if c.onSignal != nil {
		c.onSignal(msg)
	}
}

// render draws one validated event with the same primitives local commitment
// uses. Eraser events clear along their path instead of painting.
func (c *Controller) render(ev board.Event) error {
	switch ev.Tool {
	case board.ToolPen:
		return c.surface.StrokePath(ev.Coordinates, ev.Color(), ev.Width())
	case board.ToolEraser:
		return c.surface.ErasePath(ev.Coordinates, ev.Width())
	case board.ToolLine:
		return c.surface.DrawLine(ev.Coordinates[0], ev.Coordinates[1], ev.Color(), ev.Width())
	case board.ToolRectangle:
		return c.surface.DrawRectangle(ev.Coordinates[0], ev.Coordinates[1], ev.Color(), ev.Width())
	case board.ToolCircle:
		return c.surface.DrawCircle(ev.Coordinates[0], ev.Coordinates[1], ev.Color(), ev.Width())
	case board.ToolClear:
		c.surface.Clear()
	}
	return nil
}

func (c *Controller) pushSnapshot() {
	snap, err := c.surface.Snapshot()
	if err != nil {
		log.Printf("client: failed to snapshot surface: %v", err)
		return
	}
	c.hist.Push(snap)
}
