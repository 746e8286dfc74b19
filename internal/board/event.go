package board

import (
	"fmt"
)

// Tool identifies the drawing primitive an event carries.
type Tool string

const (
	ToolPen       Tool = "pen"
	ToolEraser    Tool = "eraser"
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolClear     Tool = "clear"
)

// Point is a surface-local pixel offset.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style carries the optional stroke attributes of an event. Eraser and clear
// events omit the color; clear events omit the style entirely.
type Style struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

const (
	DefaultColor = "#000000"
	DefaultWidth = 2
)

// Event is one atomic drawable action exchanged between clients. Events are
// treated as immutable values once constructed.
type Event struct {
	Tool        Tool    `json:"tool"`
	Coordinates []Point `json:"coordinates"`
	Style       *Style  `json:"style,omitempty"`
}

// MalformedEventError reports an event whose coordinate count does not match
// the arity its tool requires, or whose tool is not recognized.
type MalformedEventError struct {
	Tool   Tool
	Points int
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed drawing event: tool %q with %d coordinates: %s", e.Tool, e.Points, e.Reason)
}

// Validate checks the tool/arity invariant: clear takes no coordinates,
// line/rectangle/circle take exactly two, pen/eraser take two or more.
func (e Event) Validate() error {
	n := len(e.Coordinates)
	switch e.Tool {
	case ToolClear:
		if n != 0 {
			return &MalformedEventError{Tool: e.Tool, Points: n, Reason: "clear takes no coordinates"}
		}
	case ToolLine, ToolRectangle, ToolCircle:
		if n != 2 {
			return &MalformedEventError{Tool: e.Tool, Points: n, Reason: "shape tools take exactly 2 coordinates"}
		}
	case ToolPen, ToolEraser:
		if n < 2 {
			return &MalformedEventError{Tool: e.Tool, Points: n, Reason: "freehand tools take at least 2 coordinates"}
		}
	default:
		return &MalformedEventError{Tool: e.Tool, Points: n, Reason: "unknown tool"}
	}
	return nil
}

// Color returns the stroke color, falling back to the default when the style
// or color is absent.
func (e Event) Color() string {
	if e.Style == nil || e.Style.Color == "" {
		return DefaultColor
	}
	return e.Style.Color
}

// Width returns the stroke width, falling back to the default when the style
// or width is absent.
func (e Event) Width() float64 {
	if e.Style == nil || e.Style.Width == 0 {
		return DefaultWidth
	}
	return e.Style.Width
}
