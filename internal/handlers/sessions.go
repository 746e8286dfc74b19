package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sketchrelay/sketchrelay/internal/board"
	"github.com/sketchrelay/sketchrelay/internal/models"
	"github.com/sketchrelay/sketchrelay/internal/repositories"
	"github.com/sketchrelay/sketchrelay/internal/services"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// SessionRoster reports who is currently connected to a whiteboard session.
type SessionRoster interface {
	SessionUsers(whiteboardID string) []wire.UserEntry
}

// SessionHandler exposes whiteboard session CRUD, the saved element log and
// the live roster.
type SessionHandler struct {
	verifier    TokenVerifier
	whiteboards repositories.WhiteboardRepository
	elements    repositories.ElementRepository
	roster      SessionRoster
}

func NewSessionHandler(verifier TokenVerifier, whiteboards repositories.WhiteboardRepository, elements repositories.ElementRepository, roster SessionRoster) *SessionHandler {
	return &SessionHandler{verifier: verifier, whiteboards: whiteboards, elements: elements, roster: roster}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(h.verifier))
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{sessionID}", h.Get)
	r.Put("/{sessionID}", h.Update)
	r.Delete("/{sessionID}", h.Delete)
	r.Post("/{sessionID}/elements", h.AddElement)
	r.Get("/{sessionID}/elements", h.ListElements)
	r.Post("/{sessionID}/collaborators", h.AddCollaborator)
	r.Get("/{sessionID}/users", h.Users)
	return r
}

type createSessionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	wb := &models.Whiteboard{
		Name:          req.Name,
		Description:   req.Description,
		OwnerID:       claims.UserID,
		Collaborators: []string{},
	}
	if err := h.whiteboards.Create(r.Context(), wb); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create whiteboard")
		return
	}

	writeJSON(w, http.StatusCreated, wb)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	boards, err := h.whiteboards.ListByUser(r.Context(), claims.UserID, claims.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list whiteboards")
		return
	}

	writeJSON(w, http.StatusOK, boards)
}

// Get returns the whiteboard with its saved element log, ordered for replay.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}

	stored, err := h.elements.ListByWhiteboard(r.Context(), wb.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load elements")
		return
	}
	wb.Elements = make([]board.Event, 0, len(stored))
	for _, el := range stored {
		wb.Elements = append(wb.Elements, el.Event)
	}

	writeJSON(w, http.StatusOK, wb)
}

type updateSessionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}
	if wb.OwnerID != claims.UserID {
		writeError(w, http.StatusForbidden, "only the owner can update the whiteboard")
		return
	}

	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		wb.Name = *req.Name
	}
	if req.Description != nil {
		wb.Description = *req.Description
	}

	if err := h.whiteboards.Update(r.Context(), wb); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update whiteboard")
		return
	}

	writeJSON(w, http.StatusOK, wb)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}
	if wb.OwnerID != claims.UserID {
		writeError(w, http.StatusForbidden, "only the owner can delete the whiteboard")
		return
	}

	if err := h.elements.DeleteByWhiteboard(r.Context(), wb.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete elements")
		return
	}
	if err := h.whiteboards.Delete(r.Context(), wb.ID, claims.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete whiteboard")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddElement appends one drawing event to the whiteboard's saved log. The
// event is validated; a malformed one is rejected rather than stored.
func (h *SessionHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}

	var ev board.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	el := &models.StoredElement{
		WhiteboardID: wb.ID,
		UserID:       claims.UserID,
		Event:        ev,
	}
	if err := h.elements.Append(r.Context(), el); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store element")
		return
	}

	writeJSON(w, http.StatusCreated, el)
}

func (h *SessionHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}

	stored, err := h.elements.ListByWhiteboard(r.Context(), wb.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load elements")
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

func (h *SessionHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}
	if wb.OwnerID != claims.UserID {
		writeError(w, http.StatusForbidden, "only the owner can add collaborators")
		return
	}

	username := r.URL.Query().Get("collaborator_username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "collaborator_username is required")
		return
	}

	if err := h.whiteboards.AddCollaborator(r.Context(), wb.ID, username); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add collaborator")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// Users returns the collaborators currently connected to the session.
func (h *SessionHandler) Users(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())

	wb, ok := h.loadAccessible(w, r, claims)
	if !ok {
		return
	}

	users := []wire.UserEntry{}
	if h.roster != nil {
		users = h.roster.SessionUsers(wb.ID.String())
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// loadAccessible resolves {sessionID}, checks access, and writes the error
// response itself when the whiteboard cannot be served.
func (h *SessionHandler) loadAccessible(w http.ResponseWriter, r *http.Request, claims *services.TokenClaims) (*models.Whiteboard, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}

	wb, err := h.whiteboards.GetByID(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "whiteboard not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load whiteboard")
		return nil, false
	}

	if !wb.CanAccess(claims.UserID, claims.Username) {
		writeError(w, http.StatusForbidden, "no access to this whiteboard")
		return nil, false
	}
	return wb, true
}
