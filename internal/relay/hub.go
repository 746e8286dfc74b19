package relay

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/models"
	"github.com/sketchrelay/sketchrelay/internal/repositories"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// Hub fans each client's messages out to the other clients in the same
// whiteboard session. It is the in-memory source of truth for who is
// connected where; durable state (saved elements, presence TTL records) is
// written through the optional repositories.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]*Client
	rooms     map[string]map[string]*Client
	userRooms map[string]string

	// presenceStops ends the per-user heartbeat that keeps the TTL-bound
	// presence record alive while the connection is.
	presenceStops map[string]chan struct{}

	presence repositories.PresenceRepository
	elements repositories.ElementRepository
}

var presenceRefreshInterval = 25 * time.Second

// NewHub creates a hub. Both repositories are optional: without them the
// relay still fans out, it just keeps nothing.
func NewHub(presence repositories.PresenceRepository, elements repositories.ElementRepository) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		userRooms:     make(map[string]string),
		presenceStops: make(map[string]chan struct{}),
		presence:      presence,
		elements:      elements,
	}
}

// Connect registers a user's websocket connection. A second connection for
// the same user replaces the first.
func (h *Hub) Connect(userID string, info wire.UserInfo, conn *websocket.Conn) *Client {
	client := newClient(userID, info, conn)

	h.mu.Lock()
	if old, ok := h.clients[userID]; ok {
		old.close()
	}
	h.clients[userID] = client
	h.mu.Unlock()

	log.Printf("relay: user %s connected", userID)
	return client
}

// Disconnect removes the user from its session (notifying the room) and
// drops the connection state.
func (h *Hub) Disconnect(ctx context.Context, userID string) {
	h.Leave(ctx, userID)

	h.mu.Lock()
	client, ok := h.clients[userID]
	if ok {
		delete(h.clients, userID)
	}
	h.mu.Unlock()

	if ok {
		client.close()
		log.Printf("relay: user %s disconnected", userID)
	}
}

// Join moves the user into a whiteboard session: the room learns via
// user_joined, the joiner receives the current_users roster (excluding
// itself). Joining the room the user is already in is a no-op.
func (h *Hub) Join(ctx context.Context, userID, whiteboardID string) {
	h.mu.Lock()
	if h.userRooms[userID] == whiteboardID {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.Leave(ctx, userID)

	h.mu.Lock()
	client, ok := h.clients[userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	room := h.rooms[whiteboardID]
	if room == nil {
		room = make(map[string]*Client)
		h.rooms[whiteboardID] = room
	}
	room[userID] = client
	h.userRooms[userID] = whiteboardID

	roster := make([]wire.UserEntry, 0, len(room)-1)
	for id, c := range room {
		if id == userID {
			continue
		}
		roster = append(roster, wire.UserEntry{UserID: id, UserInfo: c.Info})
	}
	h.mu.Unlock()

	h.broadcast(whiteboardID, wire.UserJoined{
		Type:     wire.TypeUserJoined,
		UserID:   userID,
		UserInfo: client.Info,
	}, userID)

	h.sendTo(client, wire.CurrentUsers{Type: wire.TypeCurrentUsers, Users: roster})

	h.recordPresence(ctx, client, whiteboardID)
	h.startPresenceRefresh(client, whiteboardID)
	log.Printf("relay: user %s joined whiteboard %s", userID, whiteboardID)
}

// Leave detaches the user from its current session, notifying the room.
func (h *Hub) Leave(ctx context.Context, userID string) {
	h.mu.Lock()
	whiteboardID, ok := h.userRooms[userID]
	if !ok {
		h.mu.Unlock()
		return
	}
	client := h.clients[userID]
	delete(h.userRooms, userID)
	if room := h.rooms[whiteboardID]; room != nil {
		delete(room, userID)
		if len(room) == 0 {
			delete(h.rooms, whiteboardID)
		}
	}
	h.mu.Unlock()

	info := wire.UserInfo{}
	if client != nil {
		info = client.Info
	}
	h.broadcast(whiteboardID, wire.UserLeft{
		Type:     wire.TypeUserLeft,
		UserID:   userID,
		UserInfo: info,
	}, userID)

	h.stopPresenceRefresh(userID)
	h.clearPresence(ctx, userID)
	log.Printf("relay: user %s left whiteboard %s", userID, whiteboardID)
}

// BroadcastDrawing fans a drawing event out to everyone else in the sender's
// session, tagging it with the sender and a timestamp, and appends it to the
// whiteboard's durable element log.
func (h *Hub) BroadcastDrawing(ctx context.Context, userID string, ev board.Event) {
	h.mu.Lock()
	whiteboardID, ok := h.userRooms[userID]
	h.mu.Unlock()
	if !ok {
		return
	}

	h.broadcast(whiteboardID, wire.DrawingData{
		Type:      wire.TypeDrawingData,
		UserID:    userID,
		Data:      ev,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}, userID)

	h.recordElement(ctx, userID, whiteboardID, ev)
}

// ForwardSignal passes a signaling message to its target, stamping the
// sender as source_user_id. The payload itself stays opaque.
func (h *Hub) ForwardSignal(userID string, sig wire.Signal) {
	var payload map[string]any
	if err := json.Unmarshal(sig.Raw, &payload); err != nil {
		log.Printf("relay: dropping unparseable signal from %s: %v", userID, err)
		return
	}
	target, _ := payload["target_user_id"].(string)
	if target == "" {
		return
	}
	payload["source_user_id"] = userID

	h.mu.Lock()
	client, ok := h.clients[target]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.sendTo(client, payload)
}

// SessionUsers lists the users currently in a whiteboard session.
func (h *Hub) SessionUsers(whiteboardID string) []wire.UserEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[whiteboardID]
	users := make([]wire.UserEntry, 0, len(room))
	for id, c := range room {
		users = append(users, wire.UserEntry{UserID: id, UserInfo: c.Info})
	}
	return users
}

func (h *Hub) broadcast(whiteboardID string, msg any, excludeUser string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay: failed to marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	room := h.rooms[whiteboardID]
	receivers := make([]*Client, 0, len(room))
	for id, c := range room {
		if id != excludeUser {
			receivers = append(receivers, c)
		}
	}
	h.mu.Unlock()

	for _, c := range receivers {
		if !c.enqueue(data) {
			log.Printf("relay: dropping slow consumer %s", c.UserID)
			c.close()
		}
	}
}

func (h *Hub) sendTo(client *Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay: failed to marshal message: %v", err)
		return
	}
	if !client.enqueue(data) {
		log.Printf("relay: dropping slow consumer %s", client.UserID)
		client.close()
	}
}

func (h *Hub) recordPresence(ctx context.Context, client *Client, whiteboardID string) {
	if h.presence == nil {
		return
	}
	userID, err := uuid.Parse(client.UserID)
	if err != nil {
		return
	}
	p := &models.Presence{
		UserID:       userID,
		Username:     client.Info.Username,
		WhiteboardID: whiteboardID,
		Status:       string(models.StatusOnline),
	}
	if err := h.presence.SetPresence(ctx, p); err != nil {
		log.Printf("relay: failed to record presence: %v", err)
	}
}

// startPresenceRefresh re-records the user's presence on an interval shorter
// than the repository's TTL, so the record survives as long as the session.
func (h *Hub) startPresenceRefresh(client *Client, whiteboardID string) {
	if h.presence == nil {
		return
	}

	stop := make(chan struct{})
	h.mu.Lock()
	if old, ok := h.presenceStops[client.UserID]; ok {
		close(old)
	}
	h.presenceStops[client.UserID] = stop
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(presenceRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.recordPresence(context.Background(), client, whiteboardID)
			case <-stop:
				return
			}
		}
	}()
}

func (h *Hub) stopPresenceRefresh(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stop, ok := h.presenceStops[userID]; ok {
		close(stop)
		delete(h.presenceStops, userID)
	}
}

func (h *Hub) clearPresence(ctx context.Context, userID string) {
	if h.presence == nil {
		return
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	if err := h.presence.DeletePresence(ctx, id); err != nil {
		log.Printf("relay: failed to clear presence: %v", err)
	}
}

func (h *Hub) recordElement(ctx context.Context, userID, whiteboardID string, ev board.Event) {
	if h.elements == nil {
		return
	}
	wbID, err := uuid.Parse(whiteboardID)
	if err != nil {
		return
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	el := &models.StoredElement{WhiteboardID: wbID, UserID: uID, Event: ev}
	if err := h.elements.Append(ctx, el); err != nil {
		log.Printf("relay: failed to persist element: %v", err)
	}
}
