package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sketchrelay/sketchrelay/internal/relay"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// WSHandler upgrades relay connections. The bearer token travels in the URL
// path because browser websocket clients cannot set headers.
type WSHandler struct {
	hub      *relay.Hub
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *relay.Hub, verifier TokenVerifier, allowedOrigin string) *WSHandler {
	return &WSHandler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin == "*" || r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

func (h *WSHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws/{token}", h.ServeWS)
	return r
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	claims, err := h.verifier.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("relay: upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	userID := claims.UserID.String()
	ctx := r.Context()

	h.hub.Connect(userID, wire.UserInfo{Username: claims.Username}, conn)
	defer h.hub.Disconnect(ctx, userID)

	if whiteboardID := r.URL.Query().Get("whiteboard_id"); whiteboardID != "" {
		h.hub.Join(ctx, userID, whiteboardID)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("relay: user %s read error: %v", userID, err)
			}
			return
		}

		msg, err := wire.Decode(data)
		if err != nil {
			log.Printf("relay: user %s sent undecodable message: %v", userID, err)
			continue
		}

		switch m := msg.(type) {
		case wire.DrawingData:
			h.hub.BroadcastDrawing(ctx, userID, m.Data)
		case wire.JoinSession:
			h.hub.Join(ctx, userID, m.WhiteboardID)
		case wire.LeaveSession:
			h.hub.Leave(ctx, userID)
		case wire.Signal:
			h.hub.ForwardSignal(userID, m)
		case wire.Unknown:
			log.Printf("relay: user %s sent unknown message type %q", userID, m.Type)
		default:
			// Server-to-client messages arriving inbound are ignored.
		}
	}
}
