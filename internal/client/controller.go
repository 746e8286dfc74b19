package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/canvas"
	"github.com/sketchrelay/sketchrelay/internal/capture"
	"github.com/sketchrelay/sketchrelay/internal/history"
	"github.com/sketchrelay/sketchrelay/internal/presence"
	"github.com/sketchrelay/sketchrelay/internal/transport"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// Session is the core's reference to a shared whiteboard. The session itself
// is owned by the session service; the engine only needs the id for
// addressing the channel and the name for labeling.
type Session struct {
	ID   string
	Name string
}

// Config assembles a Controller.
type Config struct {
	Width  int
	Height int

	// BaseURL is the relay endpoint, e.g. "ws://localhost:8080".
	BaseURL string
	// Token is the opaque bearer token from the auth provider.
	Token string

	// OnStatus receives connection status transitions for the UI. Optional.
	OnStatus func(transport.Status)
	// OnSignal receives WebRTC signaling envelopes for the external
	// signaling collaborator. Optional; signals are dropped without it.
	OnSignal func(wire.Signal)
}

type restoreJob struct {
	snapshot []byte
	done     chan error
}

// Controller owns one whiteboard session end to end: the rendering surface,
// the snapshot history, the collaborator roster, the capture state machine
// and at most one live sync channel at a time. All session state lives here
// rather than in package-level variables, so several controllers can coexist
// in one process.
type Controller struct {
	surface  *canvas.Surface
	hist     *history.Stack
	registry *presence.Registry
	capture  *capture.Capture

	onStatus func(transport.Status)
	onSignal func(wire.Signal)
	baseURL  string
	token    string

	mu      sync.Mutex
	channel *transport.Channel
	session Session

	restoreQ  chan restoreJob
	done      chan struct{}
	closeOnce sync.Once
}

// NewController builds an offline controller. Drawing works immediately;
// events are broadcast only after Join.
func NewController(cfg Config) *Controller {
	c := &Controller{
		surface:  canvas.New(cfg.Width, cfg.Height),
		hist:     history.New(),
		registry: presence.NewRegistry(),
		onStatus: cfg.OnStatus,
		onSignal: cfg.OnSignal,
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		restoreQ: make(chan restoreJob, 16),
		done:     make(chan struct{}),
	}
	c.capture = capture.New(c.surface, c.hist, c.sendEvent)
	go c.restoreWorker()
	return c
}

// Surface exposes the rendering surface (for UI blitting and resize).
func (c *Controller) Surface() *canvas.Surface { return c.surface }

// Capture exposes the input state machine for the UI to feed pointer events.
func (c *Controller) Capture() *capture.Capture { return c.capture }

// Registry exposes the collaborator roster.
func (c *Controller) Registry() *presence.Registry { return c.registry }

// History exposes the snapshot stack.
func (c *Controller) History() *history.Stack { return c.hist }

// Session returns the active session reference.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Join connects to the relay for the given session, replacing (and closing)
// any previous channel. The collaborator roster is rebuilt from the relay's
// current_users notice.
func (c *Controller) Join(ctx context.Context, session Session) error {
	c.mu.Lock()
	if c.channel != nil {
		c.channel.Close()
	}
	ch := transport.NewChannel(c, c.onStatus)
	c.channel = ch
	c.session = session
	c.mu.Unlock()

	c.registry.Reset()

	if err := ch.Connect(ctx, c.baseURL, session.ID, c.token); err != nil {
		return fmt.Errorf("failed to join session %q: %w", session.ID, err)
	}
	return nil
}

// Leave closes the active channel, if any. Local drawing keeps working.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
}

// Close shuts the controller down: channel closed, restore worker stopped.
func (c *Controller) Close() {
	c.Leave()
	c.closeOnce.Do(func() { close(c.done) })
}

// Clear wipes the surface, resets the history and broadcasts a clear event.
// It is a direct command, not part of the capture state machine.
func (c *Controller) Clear() {
	c.surface.Clear()
	c.hist.Reset()
	c.sendEvent(board.Event{Tool: board.ToolClear})
}

// Undo steps the history back and restores the surface asynchronously. The
// returned channel reports completion; it is already closed when undo was a
// no-op. Restores run in submission order on a single worker, so an undo
// immediately followed by a redo cannot finish out of order.
func (c *Controller) Undo() <-chan error {
	snap, ok := c.hist.Undo()
	if !ok {
		return closedDone()
	}
	return c.enqueueRestore(snap)
}

// Redo steps the history forward, symmetric to Undo.
func (c *Controller) Redo() <-chan error {
	snap, ok := c.hist.Redo()
	if !ok {
		return closedDone()
	}
	return c.enqueueRestore(snap)
}

// RedrawElements replays a stored event sequence (the saved whiteboard
// contents from the session service) through the same path as remote apply,
// then captures a single snapshot. Malformed elements are dropped and logged.
func (c *Controller) RedrawElements(events []board.Event) error {
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			log.Printf("client: skipping malformed stored element: %v", err)
			continue
		}
		if err := c.render(ev); err != nil {
			return fmt.Errorf("failed to redraw element: %w", err)
		}
	}
	c.pushSnapshot()
	return nil
}

// sendEvent is the capture emitter: it forwards local events to the live
// channel and drops them silently while offline.
func (c *Controller) sendEvent(ev board.Event) {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	if ch == nil {
		return
	}
	if err := ch.Send(ev); err != nil {
		if errors.Is(err, transport.ErrChannelUnavailable) {
			return
		}
		log.Printf("client: failed to broadcast event: %v", err)
	}
}

func (c *Controller) enqueueRestore(snapshot []byte) <-chan error {
	job := restoreJob{snapshot: snapshot, done: make(chan error, 1)}
	select {
	case c.restoreQ <- job:
	case <-c.done:
		close(job.done)
	}
	return job.done
}

func (c *Controller) restoreWorker() {
	for {
		select {
		case job := <-c.restoreQ:
			err := <-c.surface.RestoreAsync(context.Background(), job.snapshot)
			if err != nil {
				// A failed restore is a missed frame, nothing more.
				log.Printf("client: snapshot restore failed: %v", err)
			}
			job.done <- err
			close(job.done)
		case <-c.done:
			return
		}
	}
}

func closedDone() <-chan error {
	done := make(chan error)
	close(done)
	return done
}
