package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
)

const journeyColumns = `
	id
  , name
  , description
  , status
  , steps
  , created_at
  , updated_at
`

// JourneyRepository handles journey-related database operations.
type JourneyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewJourneyRepository creates a new journey repository.
func NewJourneyRepository(db *sql.DB, logger *slog.Logger) *JourneyRepository {
	return &JourneyRepository{db: db, logger: logger}
}

// Journeys returns every journey that is not deleted, ordered by id.
func (r *JourneyRepository) Journeys(ctx context.Context) ([]*models.Journey, error) {
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE deleted_at IS NULL ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query journeys: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	journeys := make([]*models.Journey, 0)

	for rows.Next() {
		journey, err := scanJourney(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journey: %w", err)
		}

		journeys = append(journeys, journey)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating journeys: %w", err)
	}

	return journeys, nil
}

func (r *JourneyRepository) JourneyByID(ctx context.Context, id string) (*models.Journey, error) {
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE id = $1 AND deleted_at IS NULL`

	journey, err := scanJourney(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewJourneyError("JourneyByID", id, persistence.ErrJourneyNotFound)
		}

		return nil, persistence.NewJourneyError("JourneyByID", id, err)
	}

	return journey, nil
}

// SaveJourney validates and upserts journey. Saving a deleted id restores it.
func (r *JourneyRepository) SaveJourney(ctx context.Context, journey *models.Journey) error {
	err := models.ValidateJourney(journey)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, err)
	}

	now := time.Now().UTC()
	if journey.CreatedAt.IsZero() {
		journey.CreatedAt = now
	}

	journey.UpdatedAt = now

	stepsJSON, err := json.Marshal(journey.Steps)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, fmt.Errorf("failed to marshal steps: %w", err))
	}

	query := `
		INSERT INTO journeys (id, name, description, status, steps, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query,
		journey.ID,
		journey.Name,
		journey.Description,
		journey.Status,
		stepsJSON,
		journey.CreatedAt,
		journey.UpdatedAt,
	)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, err)
	}

	return nil
}

// DeleteJourney soft deletes a journey by setting deleted_at timestamp.
func (r *JourneyRepository) DeleteJourney(ctx context.Context, id string) error {
	query := `UPDATE journeys SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewJourneyError("DeleteJourney", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewJourneyError("DeleteJourney", id, persistence.ErrJourneyNotFound)
	}

	return nil
}

func scanJourney(row rowScanner) (*models.Journey, error) {
	var (
		journey   models.Journey
		stepsJSON []byte
	)

	err := row.Scan(
		&journey.ID,
		&journey.Name,
		&journey.Description,
		&journey.Status,
		&stepsJSON,
		&journey.CreatedAt,
		&journey.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(stepsJSON, &journey.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps of journey %s: %w", journey.ID, err)
	}

	journey.CreatedAt = journey.CreatedAt.UTC()
	journey.UpdatedAt = journey.UpdatedAt.UTC()

	return &journey, nil
}
