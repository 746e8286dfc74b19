package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sketchrelay/sketchrelay/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type WhiteboardRepository interface {
	Create(ctx context.Context, wb *models.Whiteboard) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Whiteboard, error)
	ListByUser(ctx context.Context, userID uuid.UUID, username string) ([]*models.Whiteboard, error)
	Update(ctx context.Context, wb *models.Whiteboard) error
	AddCollaborator(ctx context.Context, id uuid.UUID, username string) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type ElementRepository interface {
	Append(ctx context.Context, element *models.StoredElement) error
	ListByWhiteboard(ctx context.Context, whiteboardID uuid.UUID) ([]*models.StoredElement, error)
	DeleteByWhiteboard(ctx context.Context, whiteboardID uuid.UUID) error
}

type PresenceRepository interface {
	SetPresence(ctx context.Context, presence *models.Presence) error
	GetPresence(ctx context.Context, userID uuid.UUID) (*models.Presence, error)
	DeletePresence(ctx context.Context, userID uuid.UUID) error
}
