package capture

import (
	"testing"

	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/canvas"
	"github.com/sketchrelay/sketchrelay/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapture(t *testing.T) (*Capture, *canvas.Surface, *history.Stack, *[]board.Event) {
	t.Helper()
	surface := canvas.New(40, 40)
	hist := history.New()
	var emitted []board.Event
	c := New(surface, hist, func(ev board.Event) {
		emitted = append(emitted, ev)
	})
	return c, surface, hist, &emitted
}

func TestCaptureDefaults(t *testing.T) {
	c, _, _, _ := newCapture(t)
	assert.Equal(t, board.ToolPen, c.Tool())
	assert.Equal(t, Idle, c.State())
}

func TestSetToolRejectsClear(t *testing.T) {
	c, _, _, _ := newCapture(t)

	assert.Error(t, c.SetTool(board.ToolClear))
	assert.Error(t, c.SetTool(board.Tool("spray")))
	assert.Equal(t, board.ToolPen, c.Tool())

	require.NoError(t, c.SetTool(board.ToolCircle))
	assert.Equal(t, board.ToolCircle, c.Tool())
}

// A pen drag streams one two-point segment per move, each anchored at the
// previous point, so collaborators see the stroke grow live.
func TestPenStreamsSegmentEvents(t *testing.T) {
	c, surface, _, emitted := newCapture(t)
	c.SetStyle("#ff0000", 3)

	c.PointerDown(board.Point{X: 0, Y: 10})
	c.PointerMove(board.Point{X: 10, Y: 10})
	c.PointerMove(board.Point{X: 20, Y: 10})
	c.PointerUp(board.Point{X: 20, Y: 10})

	require.Len(t, *emitted, 2)

	first := (*emitted)[0]
	assert.Equal(t, board.ToolPen, first.Tool)
	assert.Equal(t, []board.Point{{X: 0, Y: 10}, {X: 10, Y: 10}}, first.Coordinates)
	require.NotNil(t, first.Style)
	assert.Equal(t, "#ff0000", first.Style.Color)
	assert.Equal(t, 3.0, first.Style.Width)

	second := (*emitted)[1]
	assert.Equal(t, []board.Point{{X: 10, Y: 10}, {X: 20, Y: 10}}, second.Coordinates,
		"anchor advances to the last point")

	// Ink landed locally as well.
	assert.Greater(t, surface.Image().RGBAAt(10, 10).R, uint8(200))
}

func TestEraserEmitsWidthOnlyStyle(t *testing.T) {
	c, _, _, emitted := newCapture(t)
	require.NoError(t, c.SetTool(board.ToolEraser))
	c.SetStyle("#ff0000", 6)

	c.PointerDown(board.Point{X: 0, Y: 10})
	c.PointerMove(board.Point{X: 10, Y: 10})
	c.PointerUp(board.Point{X: 10, Y: 10})

	require.Len(t, *emitted, 1)
	ev := (*emitted)[0]
	assert.Equal(t, board.ToolEraser, ev.Tool)
	require.NotNil(t, ev.Style)
	assert.Empty(t, ev.Style.Color)
	assert.Equal(t, 6.0, ev.Style.Width)
}

// Shape tools preview silently and emit exactly one event on release.
func TestShapeEmitsSingleEventOnRelease(t *testing.T) {
	c, surface, _, emitted := newCapture(t)
	require.NoError(t, c.SetTool(board.ToolRectangle))
	c.SetStyle("#00ff00", 2)

	c.PointerDown(board.Point{X: 5, Y: 5})
	c.PointerMove(board.Point{X: 15, Y: 15})
	c.PointerMove(board.Point{X: 25, Y: 25})
	assert.Empty(t, *emitted, "previews are local-only")

	c.PointerUp(board.Point{X: 30, Y: 30})

	require.Len(t, *emitted, 1)
	ev := (*emitted)[0]
	assert.Equal(t, board.ToolRectangle, ev.Tool)
	assert.Equal(t, []board.Point{{X: 5, Y: 5}, {X: 30, Y: 30}}, ev.Coordinates)
	require.NoError(t, ev.Validate())

	// Only the committed rectangle remains: a preview edge at x=25 that the
	// final shape does not cover has been restored away.
	assert.Greater(t, surface.Image().RGBAAt(17, 5).G, uint8(100), "final top edge present")
}

func TestPointerDownPushesHistorySnapshot(t *testing.T) {
	c, _, hist, _ := newCapture(t)

	assert.Equal(t, 0, hist.Len())
	c.PointerDown(board.Point{X: 1, Y: 1})
	assert.Equal(t, 1, hist.Len(), "pre-stroke state is captured for undo")
	c.PointerUp(board.Point{X: 2, Y: 2})

	c.PointerDown(board.Point{X: 3, Y: 3})
	assert.Equal(t, 2, hist.Len())
	c.PointerUp(board.Point{X: 4, Y: 4})
}

func TestMoveAndUpWithoutDownAreNoOps(t *testing.T) {
	c, surface, hist, emitted := newCapture(t)

	c.PointerMove(board.Point{X: 10, Y: 10})
	c.PointerUp(board.Point{X: 10, Y: 10})

	assert.Empty(t, *emitted)
	assert.Equal(t, 0, hist.Len())
	assert.Equal(t, uint8(0), surface.Image().RGBAAt(10, 10).A)
}

func TestSecondPointerDownDuringCaptureIsIgnored(t *testing.T) {
	c, _, hist, _ := newCapture(t)

	c.PointerDown(board.Point{X: 0, Y: 0})
	c.PointerDown(board.Point{X: 20, Y: 20})
	assert.Equal(t, 1, hist.Len())

	// The anchor is still the first point.
	c.PointerMove(board.Point{X: 5, Y: 5})
	c.PointerUp(board.Point{X: 5, Y: 5})
}

func TestSetToolRejectedDuringCapture(t *testing.T) {
	c, _, _, emitted := newCapture(t)

	c.PointerDown(board.Point{X: 0, Y: 0})
	assert.Error(t, c.SetTool(board.ToolRectangle), "tool is locked while capturing")
	assert.Equal(t, board.ToolPen, c.Tool())

	// Releasing the stroke stays on the freehand path and cannot trip the
	// shape-commit logic, which has no base image to restore.
	c.PointerUp(board.Point{X: 5, Y: 5})
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, *emitted)

	require.NoError(t, c.SetTool(board.ToolRectangle))
}

func TestPointerLeaveEndsCapture(t *testing.T) {
	c, _, _, emitted := newCapture(t)
	require.NoError(t, c.SetTool(board.ToolLine))

	c.PointerDown(board.Point{X: 0, Y: 0})
	c.PointerLeave(board.Point{X: 39, Y: 39})

	assert.Equal(t, Idle, c.State())
	require.Len(t, *emitted, 1)
	assert.Equal(t, board.ToolLine, (*emitted)[0].Tool)
}

func TestNilEmitterKeepsDrawingLocal(t *testing.T) {
	surface := canvas.New(40, 40)
	c := New(surface, history.New(), nil)

	c.PointerDown(board.Point{X: 0, Y: 10})
	c.PointerMove(board.Point{X: 20, Y: 10})
	c.PointerUp(board.Point{X: 20, Y: 10})

	assert.Greater(t, surface.Image().RGBAAt(10, 10).A, uint8(200))
}
