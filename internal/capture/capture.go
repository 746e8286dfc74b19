package capture

import (
	"fmt"
	"image"
	"log"

	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/canvas"
	"github.com/sketchrelay/sketchrelay/internal/history"
)

// State of the capture machine.
type State int

const (
	Idle State = iota
	Capturing
)

// Emitter receives locally generated drawing events for broadcast. The
// capture machine never talks to the transport directly; a nil emitter means
// events are dropped and drawing stays local-only.
type Emitter func(board.Event)

// Capture converts pointer/touch input into drawing events, rendering to the
// surface as it goes. Freehand strokes are streamed as short two-point
// segment events; shape tools preview locally and emit a single event on
// release.
type Capture struct {
	surface *canvas.Surface
	hist    *history.Stack
	emit    Emitter

	state  State
	tool   board.Tool
	color  string
	width  float64
	anchor board.Point

	// base holds the surface pixels at pointer-down so shape previews can be
	// redrawn from a stable background on every move.
	base *image.RGBA
}

// New creates a capture machine drawing to the surface and pushing snapshots
// to the history stack. emit may be nil.
func New(surface *canvas.Surface, hist *history.Stack, emit Emitter) *Capture {
	return &Capture{
		surface: surface,
		hist:    hist,
		emit:    emit,
		tool:    board.ToolPen,
		color:   board.DefaultColor,
		width:   board.DefaultWidth,
	}
}

// State reports whether a capture is in progress.
func (c *Capture) State() State {
	return c.state
}

// SetTool selects the active drawing tool. Clear is a direct command on the
// controller, not a capture tool, and the tool cannot change while a capture
// is in progress.
func (c *Capture) SetTool(tool board.Tool) error {
	if c.state == Capturing {
		return fmt.Errorf("cannot change tool during capture")
	}
	switch tool {
	case board.ToolPen, board.ToolEraser, board.ToolLine, board.ToolRectangle, board.ToolCircle:
		c.tool = tool
		return nil
	default:
		return fmt.Errorf("tool %q cannot be captured", tool)
	}
}

// Tool returns the active tool.
func (c *Capture) Tool() board.Tool {
	return c.tool
}

// SetStyle sets the stroke color and width used for subsequent captures.
func (c *Capture) SetStyle(color string, width float64) {
	if color != "" {
		c.color = color
	}
	if width > 0 {
		c.width = width
	}
}

// PointerDown begins a capture at the given surface-local point. The surface
// state is snapshotted before any ink lands, so undo returns to it.
func (c *Capture) PointerDown(p board.Point) {
	if c.state == Capturing {
		return
	}
	c.state = Capturing
	c.anchor = p

	if snap, err := c.surface.Snapshot(); err != nil {
		log.Printf("capture: failed to snapshot surface: %v", err)
	} else {
		c.hist.Push(snap)
	}

	if isShapeTool(c.tool) {
		c.base = c.surface.Image()
	}
}

// PointerMove extends the capture. Freehand tools draw and emit a segment
// event per move and advance the anchor; shape tools redraw a preview over
// the pointer-down base and emit nothing.
func (c *Capture) PointerMove(p board.Point) {
	if c.state != Capturing {
		return
	}

	switch c.tool {
	case board.ToolPen:
		seg := []board.Point{c.anchor, p}
		if err := c.surface.StrokePath(seg, c.color, c.width); err != nil {
			log.Printf("capture: failed to draw segment: %v", err)
		}
		c.send(board.Event{
			Tool:        board.ToolPen,
			Coordinates: seg,
			Style:       &board.Style{Color: c.color, Width: c.width},
		})
		c.anchor = p
	case board.ToolEraser:
		seg := []board.Point{c.anchor, p}
		if err := c.surface.ErasePath(seg, c.width); err != nil {
			log.Printf("capture: failed to erase segment: %v", err)
		}
		c.send(board.Event{
			Tool:        board.ToolEraser,
			Coordinates: seg,
			Style:       &board.Style{Width: c.width},
		})
		c.anchor = p
	default:
		c.previewShape(p)
	}
}

// PointerUp ends the capture at the given point. Shape tools commit and emit
// their single event here.
func (c *Capture) PointerUp(p board.Point) {
	if c.state != Capturing {
		return
	}
	c.state = Idle

	if !isShapeTool(c.tool) || c.base == nil {
		return
	}

	// Replace any preview with the final shape drawn over the base image.
	c.surface.RestoreImage(c.base)
	c.base = nil
	if err := c.drawShape(c.anchor, p); err != nil {
		log.Printf("capture: failed to commit shape: %v", err)
		return
	}
	c.send(board.Event{
		Tool:        c.tool,
		Coordinates: []board.Point{c.anchor, p},
		Style:       &board.Style{Color: c.color, Width: c.width},
	})
}

// PointerLeave ends the capture when the pointer exits the surface, exactly
// like a release at the exit point.
func (c *Capture) PointerLeave(p board.Point) {
	c.PointerUp(p)
}

// TouchDown, TouchMove and TouchEnd map touch input onto the pointer path.
// Callers must hand in surface-local offsets computed the same way as for
// pointer input.
func (c *Capture) TouchDown(p board.Point) { c.PointerDown(p) }
func (c *Capture) TouchMove(p board.Point) { c.PointerMove(p) }
func (c *Capture) TouchEnd(p board.Point)  { c.PointerUp(p) }

func (c *Capture) previewShape(p board.Point) {
	if c.base == nil {
		return
	}
	c.surface.RestoreImage(c.base)
	if err := c.drawShape(c.anchor, p); err != nil {
		log.Printf("capture: failed to draw preview: %v", err)
	}
}

func (c *Capture) drawShape(a, b board.Point) error {
	switch c.tool {
	case board.ToolLine:
		return c.surface.DrawLine(a, b, c.color, c.width)
	case board.ToolRectangle:
		return c.surface.DrawRectangle(a, b, c.color, c.width)
	case board.ToolCircle:
		return c.surface.DrawCircle(a, b, c.color, c.width)
	}
	return nil
}

func (c *Capture) send(ev board.Event) {
	if c.emit == nil {
		return
	}
	c.emit(ev)
}

func isShapeTool(t board.Tool) bool {
	return t == board.ToolLine || t == board.ToolRectangle || t == board.ToolCircle
}
