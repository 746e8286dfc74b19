package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sketchrelay/sketchrelay/internal/models"
)

type PostgresWhiteboardRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresWhiteboardRepository(pool *pgxpool.Pool) *PostgresWhiteboardRepository {
	return &PostgresWhiteboardRepository{pool: pool}
}

func (r *PostgresWhiteboardRepository) Create(ctx context.Context, wb *models.Whiteboard) error {
	query := `INSERT INTO whiteboards (name, description, owner_id, collaborators)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at, updated_at`

	if wb.Collaborators == nil {
		wb.Collaborators = []string{}
	}
	err := r.pool.QueryRow(ctx, query, wb.Name, wb.Description, wb.OwnerID, wb.Collaborators).
		Scan(&wb.ID, &wb.CreatedAt, &wb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create whiteboard: %w", err)
	}
	return nil
}

func (r *PostgresWhiteboardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Whiteboard, error) {
	query := `SELECT id, name, description, owner_id, collaborators, created_at, updated_at
	          FROM whiteboards
	          WHERE id = $1`

	var wb models.Whiteboard
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&wb.ID,
		&wb.Name,
		&wb.Description,
		&wb.OwnerID,
		&wb.Collaborators,
		&wb.CreatedAt,
		&wb.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get whiteboard: %w", err)
	}
	return &wb, nil
}

func (r *PostgresWhiteboardRepository) ListByUser(ctx context.Context, userID uuid.UUID, username string) ([]*models.Whiteboard, error) {
	query := `SELECT id, name, description, owner_id, collaborators, created_at, updated_at
	          FROM whiteboards
	          WHERE owner_id = $1 OR $2 = ANY(collaborators)
	          ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query whiteboards: %w", err)
	}
	defer rows.Close()

	var boards []*models.Whiteboard
	for rows.Next() {
		var wb models.Whiteboard
		err := rows.Scan(
			&wb.ID,
			&wb.Name,
			&wb.Description,
			&wb.OwnerID,
			&wb.Collaborators,
			&wb.CreatedAt,
			&wb.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan whiteboard: %w", err)
		}
		boards = append(boards, &wb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating whiteboards: %w", err)
	}
	return boards, nil
}

func (r *PostgresWhiteboardRepository) Update(ctx context.Context, wb *models.Whiteboard) error {
	query := `UPDATE whiteboards SET name = $1, description = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, wb.Name, wb.Description, wb.ID)
	if err != nil {
		return fmt.Errorf("failed to update whiteboard: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresWhiteboardRepository) AddCollaborator(ctx context.Context, id uuid.UUID, username string) error {
	// array_append only when absent, mirroring a set insert.
	query := `UPDATE whiteboards
	          SET collaborators = array_append(collaborators, $2), updated_at = NOW()
	          WHERE id = $1 AND NOT ($2 = ANY(collaborators))`

	result, err := r.pool.Exec(ctx, query, id, username)
	if err != nil {
		return fmt.Errorf("failed to add collaborator: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Already a collaborator, or the whiteboard does not exist.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresWhiteboardRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `DELETE FROM whiteboards WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete whiteboard: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
