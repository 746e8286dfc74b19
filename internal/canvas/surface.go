package canvas

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/sketchrelay/sketchrelay/internal/board"
)

// Surface is the shared rendering target. Local capture, remote apply and
// history restore all mutate it, possibly from different goroutines, so every
// mutation is serialized by the internal mutex.
type Surface struct {
	mu     sync.Mutex
	dc     *gg.Context
	width  int
	height int
}

// New creates a blank transparent surface of the given pixel dimensions.
func New(width, height int) *Surface {
	return &Surface{
		dc:     gg.NewContext(width, height),
		width:  width,
		height: height,
	}
}

// Size returns the surface dimensions in pixels.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the surface dimensions. Sizing is owned by the embedding UI;
// the surface only reacts to its notifications.
func (s *Surface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dc.Resize(width, height); err != nil {
		return fmt.Errorf("failed to resize surface: %w", err)
	}
	s.width = width
	s.height = height
	return nil
}

func applyStroke(dc *gg.Context, color string, width float64) {
	dc.SetHexColor(color)
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
}

// StrokePath draws a colored polyline through the points.
func (s *Surface) StrokePath(points []board.Point, color string, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strokePolyline(s.dc, points, color, width)
}

func strokePolyline(dc *gg.Context, points []board.Point, color string, width float64) error {
	if len(points) < 2 {
		return nil
	}
	applyStroke(dc, color, width)
	dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("failed to stroke path: %w", err)
	}
	return nil
}

// ErasePath clears the surface along the polyline: destination-out
// compositing, so erased pixels become fully transparent rather than painted
// over.
func (s *Surface) ErasePath(points []board.Point, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(points) < 2 {
		return nil
	}

	// Render the eraser track into a scratch context and use its coverage to
	// knock alpha out of the current pixels.
	mask := gg.NewContext(s.width, s.height)
	if err := strokePolyline(mask, points, "#000000", width); err != nil {
		return err
	}
	maskImg := toRGBA(mask.Image())

	base := toRGBA(s.dc.Image())
	bounds := base.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ma := maskImg.RGBAAt(x, y).A
			if ma == 0 {
				continue
			}
			px := base.RGBAAt(x, y)
			keep := uint32(255 - ma)
			px.R = uint8(uint32(px.R) * keep / 255)
			px.G = uint8(uint32(px.G) * keep / 255)
			px.B = uint8(uint32(px.B) * keep / 255)
			px.A = uint8(uint32(px.A) * keep / 255)
			base.SetRGBA(x, y, px)
		}
	}

	s.dc.Clear()
	s.dc.DrawImage(gg.ImageBufFromImage(base), 0, 0)
	return nil
}

// DrawLine draws a straight segment between the two points.
func (s *Surface) DrawLine(a, b board.Point, color string, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	applyStroke(s.dc, color, width)
	s.dc.MoveTo(a.X, a.Y)
	s.dc.LineTo(b.X, b.Y)
	if err := s.dc.Stroke(); err != nil {
		return fmt.Errorf("failed to draw line: %w", err)
	}
	return nil
}

// DrawRectangle draws the outline of the rectangle spanned by the two corner
// points, in either drag direction.
func (s *Surface) DrawRectangle(a, b board.Point, color string, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y := min(a.X, b.X), min(a.Y, b.Y)
	w, h := abs(b.X-a.X), abs(b.Y-a.Y)

	applyStroke(s.dc, color, width)
	s.dc.DrawRectangle(x, y, w, h)
	if err := s.dc.Stroke(); err != nil {
		return fmt.Errorf("failed to draw rectangle: %w", err)
	}
	return nil
}

// DrawCircle draws a circle centered on the anchor point, with the radius set
// by the distance to the release point.
func (s *Surface) DrawCircle(center, edge board.Point, color string, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := distance(center, edge)
	applyStroke(s.dc, color, width)
	s.dc.DrawCircle(center.X, center.Y, r)
	if err := s.dc.Stroke(); err != nil {
		return fmt.Errorf("failed to draw circle: %w", err)
	}
	return nil
}

// Clear wipes the whole surface back to transparent.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.Clear()
}

// Image returns a copy of the current surface pixels.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toRGBA(s.dc.Image())
}

// RestoreImage replaces the surface contents with the given pixels. Used for
// shape previews, where the pre-capture image is redrawn on every move.
func (s *Surface) RestoreImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.Clear()
	s.dc.DrawImage(gg.ImageBufFromImage(img), 0, 0)
}

func toRGBA(img image.Image) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

func distance(a, b board.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// encodeSnapshot is the capture half of Snapshot, split out for reuse under
// the lock.
func (s *Surface) encodeSnapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Snapshot captures the whole surface as an opaque blob (PNG encoded).
func (s *Surface) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encodeSnapshot()
}

// Restore replaces the surface contents from a snapshot previously captured
// with Snapshot.
func (s *Surface) Restore(snapshot []byte) error {
	img, err := png.Decode(bytes.NewReader(snapshot))
	if err != nil {
		return &SnapshotRestoreError{Err: err}
	}
	s.RestoreImage(img)
	return nil
}

// RestoreAsync decodes and applies a snapshot off the calling goroutine. The
// returned channel delivers exactly one value and is then closed, so callers
// can await completion or walk away; cancelling the context abandons the
// restore before it is applied.
func (s *Surface) RestoreAsync(ctx context.Context, snapshot []byte) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)

		img, err := png.Decode(bytes.NewReader(snapshot))
		if err != nil {
			done <- &SnapshotRestoreError{Err: err}
			return
		}
		select {
		case <-ctx.Done():
			done <- ctx.Err()
			return
		default:
		}
		s.RestoreImage(img)
		done <- nil
	}()
	return done
}
