package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sketchrelay/sketchrelay/internal/models"
)

// PostgresElementRepository persists a whiteboard's drawing events as an
// append-only, sequence-numbered log, replayed in order on load.
type PostgresElementRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresElementRepository(pool *pgxpool.Pool) *PostgresElementRepository {
	return &PostgresElementRepository{pool: pool}
}

func (r *PostgresElementRepository) Append(ctx context.Context, element *models.StoredElement) error {
	query := `INSERT INTO whiteboard_elements (whiteboard_id, user_id, seq, event)
              VALUES ($1, $2,
                      (SELECT COALESCE(MAX(seq), 0) + 1 FROM whiteboard_elements WHERE whiteboard_id = $1),
                      $3)
              RETURNING id, seq, created_at`

	err := r.pool.QueryRow(ctx, query, element.WhiteboardID, element.UserID, element.Event).
		Scan(&element.ID, &element.Seq, &element.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append element: %w", err)
	}
	return nil
}

func (r *PostgresElementRepository) ListByWhiteboard(ctx context.Context, whiteboardID uuid.UUID) ([]*models.StoredElement, error) {
	query := `SELECT id, whiteboard_id, user_id, seq, event, created_at
	          FROM whiteboard_elements
	          WHERE whiteboard_id = $1
	          ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query, whiteboardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var elements []*models.StoredElement
	for rows.Next() {
		var el models.StoredElement
		err := rows.Scan(&el.ID, &el.WhiteboardID, &el.UserID, &el.Seq, &el.Event, &el.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		elements = append(elements, &el)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating elements: %w", err)
	}
	return elements, nil
}

func (r *PostgresElementRepository) DeleteByWhiteboard(ctx context.Context, whiteboardID uuid.UUID) error {
	query := `DELETE FROM whiteboard_elements WHERE whiteboard_id = $1`

	if _, err := r.pool.Exec(ctx, query, whiteboardID); err != nil {
		return fmt.Errorf("failed to delete elements: %w", err)
	}
	return nil
}
