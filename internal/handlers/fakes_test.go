package handlers

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sketchrelay/sketchrelay/internal/models"
	"github.com/sketchrelay/sketchrelay/internal/repositories"
	"github.com/sketchrelay/sketchrelay/internal/services"
	"github.com/sketchrelay/sketchrelay/internal/wire"
)

// fakeRoster serves canned live-session rosters.
type fakeRoster struct {
	byWhiteboard map[string][]wire.UserEntry
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{byWhiteboard: make(map[string][]wire.UserEntry)}
}

func (r *fakeRoster) SessionUsers(whiteboardID string) []wire.UserEntry {
	return r.byWhiteboard[whiteboardID]
}

// fakeVerifier maps opaque tokens straight to claims.
type fakeVerifier struct {
	tokens map[string]*services.TokenClaims
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{tokens: make(map[string]*services.TokenClaims)}
}

func (v *fakeVerifier) add(token, username string) *services.TokenClaims {
	claims := &services.TokenClaims{UserID: uuid.New(), Username: username}
	v.tokens[token] = claims
	return claims
}

func (v *fakeVerifier) VerifyToken(token string) (*services.TokenClaims, error) {
	if claims, ok := v.tokens[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// fakeWhiteboardRepo is an in-memory WhiteboardRepository.
type fakeWhiteboardRepo struct {
	byID map[uuid.UUID]*models.Whiteboard
}

func newFakeWhiteboardRepo() *fakeWhiteboardRepo {
	return &fakeWhiteboardRepo{byID: make(map[uuid.UUID]*models.Whiteboard)}
}

func (r *fakeWhiteboardRepo) Create(ctx context.Context, wb *models.Whiteboard) error {
	wb.ID = uuid.New()
	wb.CreatedAt = time.Now()
	wb.UpdatedAt = wb.CreatedAt
	clone := *wb
	r.byID[wb.ID] = &clone
	return nil
}

func (r *fakeWhiteboardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Whiteboard, error) {
	if wb, ok := r.byID[id]; ok {
		clone := *wb
		return &clone, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeWhiteboardRepo) ListByUser(ctx context.Context, userID uuid.UUID, username string) ([]*models.Whiteboard, error) {
	var out []*models.Whiteboard
	for _, wb := range r.byID {
		if wb.CanAccess(userID, username) {
			clone := *wb
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeWhiteboardRepo) Update(ctx context.Context, wb *models.Whiteboard) error {
	if _, ok := r.byID[wb.ID]; !ok {
		return repositories.ErrNotFound
	}
	wb.UpdatedAt = time.Now()
	clone := *wb
	r.byID[wb.ID] = &clone
	return nil
}

func (r *fakeWhiteboardRepo) AddCollaborator(ctx context.Context, id uuid.UUID, username string) error {
	wb, ok := r.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, c := range wb.Collaborators {
		if c == username {
			return nil
		}
	}
	wb.Collaborators = append(wb.Collaborators, username)
	return nil
}

func (r *fakeWhiteboardRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	wb, ok := r.byID[id]
	if !ok || wb.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// fakeElementRepo is an in-memory ElementRepository.
type fakeElementRepo struct {
	byWhiteboard map[uuid.UUID][]*models.StoredElement
}

func newFakeElementRepo() *fakeElementRepo {
	return &fakeElementRepo{byWhiteboard: make(map[uuid.UUID][]*models.StoredElement)}
}

func (r *fakeElementRepo) Append(ctx context.Context, el *models.StoredElement) error {
	el.ID = uuid.New()
	el.Seq = int64(len(r.byWhiteboard[el.WhiteboardID]) + 1)
	el.CreatedAt = time.Now()
	clone := *el
	r.byWhiteboard[el.WhiteboardID] = append(r.byWhiteboard[el.WhiteboardID], &clone)
	return nil
}

func (r *fakeElementRepo) ListByWhiteboard(ctx context.Context, whiteboardID uuid.UUID) ([]*models.StoredElement, error) {
	return r.byWhiteboard[whiteboardID], nil
}

func (r *fakeElementRepo) DeleteByWhiteboard(ctx context.Context, whiteboardID uuid.UUID) error {
	delete(r.byWhiteboard, whiteboardID)
	return nil
}
