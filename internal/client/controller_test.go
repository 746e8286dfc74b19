package client

import (
	"testing"
	"time"

	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(Config{Width: 40, Height: 40})
	t.Cleanup(c.Close)
	return c
}

func penEvent(from, to board.Point, color string, width float64) wire.DrawingData {
	return wire.DrawingData{
		Type:   wire.TypeDrawingData,
		UserID: "remote",
		Data: board.Event{
			Tool:        board.ToolPen,
			Coordinates: []board.Point{from, to},
			Style:       &board.Style{Color: color, Width: width},
		},
	}
}

func TestHandleDrawingAppliesRemoteEvent(t *testing.T) {
	c := newTestController(t)

	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 10}, board.Point{X: 39, Y: 10}, "#ff0000", 4))

	px := c.Surface().Image().RGBAAt(20, 10)
	assert.Greater(t, px.R, uint8(200))
	assert.Equal(t, 1, c.History().Len(), "remote apply pushes one snapshot")
}

func TestHandleDrawingDropsMalformedEvent(t *testing.T) {
	c := newTestController(t)

	c.HandleDrawing(wire.DrawingData{
		Type: wire.TypeDrawingData,
		Data: board.Event{Tool: board.ToolLine, Coordinates: []board.Point{{X: 1, Y: 1}}},
	})

	assert.Equal(t, 0, c.History().Len())
	assert.Equal(t, uint8(0), c.Surface().Image().RGBAAt(1, 1).A)
}

func TestHandleDrawingAppliesStyleDefaults(t *testing.T) {
	c := newTestController(t)

	// No style at all: default black, width 2.
	c.HandleDrawing(wire.DrawingData{
		Type: wire.TypeDrawingData,
		Data: board.Event{Tool: board.ToolPen, Coordinates: []board.Point{{X: 0, Y: 10}, {X: 39, Y: 10}}},
	})

	px := c.Surface().Image().RGBAAt(20, 10)
	assert.Greater(t, px.A, uint8(200))
	assert.Less(t, px.R, uint8(50))
}

func TestHandleClearEvent(t *testing.T) {
	c := newTestController(t)
	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 10}, board.Point{X: 39, Y: 10}, "#ff0000", 4))

	c.HandleDrawing(wire.DrawingData{
		Type: wire.TypeDrawingData,
		Data: board.Event{Tool: board.ToolClear},
	})

	assert.Equal(t, uint8(0), c.Surface().Image().RGBAAt(20, 10).A)
}

func TestRosterUpdates(t *testing.T) {
	c := newTestController(t)

	// Initial roster, then an overlapping join: no duplicates.
	c.HandleCurrentUsers(wire.CurrentUsers{
		Type: wire.TypeCurrentUsers,
		Users: []wire.UserEntry{
			{UserID: "u1", UserInfo: wire.UserInfo{Username: "alice"}},
			{UserID: "u2", UserInfo: wire.UserInfo{Username: "bob"}},
		},
	})
	c.HandleUserJoined(wire.UserJoined{Type: wire.TypeUserJoined, UserID: "u1", UserInfo: wire.UserInfo{Username: "alice"}})
	assert.Equal(t, 2, c.Registry().Len())

	c.HandleUserLeft(wire.UserLeft{Type: wire.TypeUserLeft, UserID: "u2"})
	assert.Equal(t, 1, c.Registry().Len())
	_, ok := c.Registry().Get("u2")
	assert.False(t, ok)
}

func TestHandleSignalForwards(t *testing.T) {
	var got []wire.Signal
	c := NewController(Config{Width: 10, Height: 10, OnSignal: func(s wire.Signal) { got = append(got, s) }})
	defer c.Close()

	c.HandleSignal(wire.Signal{Type: wire.TypeOffer, SourceUserID: "u1"})
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].SourceUserID)

	// Without a hook the signal is dropped, not an error.
	c2 := newTestController(t)
	c2.HandleSignal(wire.Signal{Type: wire.TypeOffer})
}

func TestUndoRedoRoundTrip(t *testing.T) {
	c := newTestController(t)

	// Two strokes, each snapshotted.
	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 10}, board.Point{X: 39, Y: 10}, "#ff0000", 4))
	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 30}, board.Point{X: 39, Y: 30}, "#0000ff", 4))
	require.Equal(t, 2, c.History().Len())

	// Undo removes the second stroke but keeps the first.
	require.NoError(t, <-c.Undo())
	assert.Greater(t, c.Surface().Image().RGBAAt(20, 10).R, uint8(200))
	assert.Equal(t, uint8(0), c.Surface().Image().RGBAAt(20, 30).A)

	// Redo brings it back.
	require.NoError(t, <-c.Redo())
	assert.Greater(t, c.Surface().Image().RGBAAt(20, 30).B, uint8(200))
}

func TestUndoAtBottomIsNoOp(t *testing.T) {
	c := newTestController(t)

	select {
	case _, open := <-c.Undo():
		assert.False(t, open, "no-op undo returns an already closed channel")
	case <-time.After(time.Second):
		t.Fatal("undo did not complete")
	}
}

// A burst of interleaved undo/redo requests settles on a consistent surface
// because restores run sequentially on one worker.
func TestInterleavedUndoRedoSettles(t *testing.T) {
	c := newTestController(t)
	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 10}, board.Point{X: 39, Y: 10}, "#ff0000", 4))
	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 30}, board.Point{X: 39, Y: 30}, "#0000ff", 4))

	done1 := c.Undo()
	done2 := c.Redo()
	<-done1
	<-done2

	// The redo was submitted last, so the second stroke is present.
	assert.Greater(t, c.Surface().Image().RGBAAt(20, 30).B, uint8(200))
}

func TestClearResetsHistory(t *testing.T) {
	c := newTestController(t)
	c.HandleDrawing(penEvent(board.Point{X: 0, Y: 10}, board.Point{X: 39, Y: 10}, "#ff0000", 4))
	require.Equal(t, 1, c.History().Len())

	c.Clear()

	assert.Equal(t, 0, c.History().Len())
	assert.Equal(t, uint8(0), c.Surface().Image().RGBAAt(20, 10).A)
	_, open := <-c.Undo()
	assert.False(t, open, "nothing to undo across a clear")
}

func TestRedrawElements(t *testing.T) {
	c := newTestController(t)

	events := []board.Event{
		{Tool: board.ToolPen, Coordinates: []board.Point{{X: 0, Y: 10}, {X: 39, Y: 10}}, Style: &board.Style{Color: "#ff0000", Width: 4}},
		{Tool: board.ToolLine, Coordinates: []board.Point{{X: 5, Y: 5}}}, // malformed, skipped
		{Tool: board.ToolCircle, Coordinates: []board.Point{{X: 20, Y: 20}, {X: 30, Y: 20}}, Style: &board.Style{Color: "#0000ff", Width: 2}},
	}

	require.NoError(t, c.RedrawElements(events))

	assert.Greater(t, c.Surface().Image().RGBAAt(20, 10).R, uint8(200))
	assert.Equal(t, 1, c.History().Len(), "replay captures a single snapshot, not one per element")
}
