package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/lib/pq"
)

const executionColumns = `
	id
  , journey_id
  , contact_id
  , status
  , current_step_id
  , next_wake_at
  , execution_data
  , steps
  , started_at
  , completed_at
  , failure_reason
  , lease_owner
  , lease_expires_at
  , updated_at
`

// ExecutionRepository handles execution-related database operations. Claims
// rely on row locks so concurrent runners never receive the same execution.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.Execution) error {
	dataJSON, stepsJSON, err := marshalExecution(execution)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	query := `
		INSERT INTO executions (` + executionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.JourneyID,
		execution.ContactID,
		execution.Status,
		execution.CurrentStepID,
		execution.NextWakeAt,
		dataJSON,
		stepsJSON,
		execution.StartedAt,
		execution.CompletedAt,
		execution.FailureReason,
		nullString(execution.LeaseOwner),
		execution.LeaseExpiresAt,
		execution.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "idx_executions_active_contact") {
			return persistence.NewExecutionError("CreateExecution", execution.ID, persistence.ErrDuplicateExecution)
		}

		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) ActiveExecution(ctx context.Context, journeyID, contactID string) (*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE journey_id = $1 AND contact_id = $2 AND status IN ('running', 'paused')
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, journeyID, contactID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ActiveExecution", journeyID+"/"+contactID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to query active execution: %w", err)
	}

	return execution, nil
}

// ExecutionsByJourney returns the executions of journeyID, oldest first.
func (r *ExecutionRepository) ExecutionsByJourney(ctx context.Context, journeyID string) ([]*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE journey_id = $1 ORDER BY started_at, id`

	rows, err := r.db.QueryContext(ctx, query, journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	return r.collect(ctx, rows)
}

// ClaimDueExecutions leases up to limit due executions to owner. A limit of
// zero or less claims every due execution.
func (r *ExecutionRepository) ClaimDueExecutions(ctx context.Context, owner string, now time.Time, ttl time.Duration, limit int) ([]*models.Execution, error) {
	query := `
		UPDATE executions
		SET lease_owner = $1, lease_expires_at = $2
		WHERE id IN (
			SELECT id
			FROM executions
			WHERE status = 'running'
			  AND (next_wake_at IS NULL OR next_wake_at <= $3)
			  AND (lease_owner IS NULL OR lease_expires_at IS NULL OR lease_expires_at <= $3)
			ORDER BY next_wake_at ASC NULLS FIRST, started_at ASC, id ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + executionColumns

	var maxRows sql.NullInt64
	if limit > 0 {
		maxRows = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, owner, now.Add(ttl), now, maxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due executions: %w", err)
	}

	claimed, err := r.collect(ctx, rows)
	if err != nil {
		return nil, err
	}

	sort.Slice(claimed, func(i, j int) bool {
		wi, wj := claimed[i].NextWakeAt, claimed[j].NextWakeAt

		switch {
		case wi == nil && wj != nil:
			return true
		case wi != nil && wj == nil:
			return false
		case wi != nil && !wi.Equal(*wj):
			return wi.Before(*wj)
		}

		return claimed[i].StartedAt.Before(claimed[j].StartedAt)
	})

	return claimed, nil
}

// SaveClaimed writes execution back and releases owner's lease. It fails with
// ErrLeaseLost when owner no longer holds the lease.
func (r *ExecutionRepository) SaveClaimed(ctx context.Context, execution *models.Execution, owner string) error {
	dataJSON, stepsJSON, err := marshalExecution(execution)
	if err != nil {
		return persistence.NewExecutionError("SaveClaimed", execution.ID, err)
	}

	query := `
		UPDATE executions SET
			status = $2,
			current_step_id = $3,
			next_wake_at = $4,
			execution_data = $5,
			steps = $6,
			completed_at = $7,
			failure_reason = $8,
			updated_at = $9,
			lease_owner = NULL,
			lease_expires_at = NULL
		WHERE id = $1 AND lease_owner = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.Status,
		execution.CurrentStepID,
		execution.NextWakeAt,
		dataJSON,
		stepsJSON,
		execution.CompletedAt,
		execution.FailureReason,
		execution.UpdatedAt,
		owner,
	)
	if err != nil {
		return persistence.NewExecutionError("SaveClaimed", execution.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		_, err := r.ExecutionByID(ctx, execution.ID)
		if err != nil {
			return err
		}

		return persistence.NewExecutionError("SaveClaimed", execution.ID, persistence.ErrLeaseLost)
	}

	execution.LeaseOwner = ""
	execution.LeaseExpiresAt = nil

	return nil
}

func (r *ExecutionRepository) TransitionStatus(ctx context.Context, id string, from, to models.ExecutionStatus, now time.Time) (*models.Execution, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1 FOR UPDATE`

	execution, err := scanExecution(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("TransitionStatus", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("TransitionStatus", id, err)
	}

	if execution.IsLeased(now) {
		err = persistence.ErrExecutionBusy

		return nil, persistence.NewExecutionError("TransitionStatus", id, err)
	}

	if execution.Status != from {
		err = fmt.Errorf("%w: execution is %s, not %s", persistence.ErrInvalidStatusTransition, execution.Status, from)

		return nil, persistence.NewExecutionError("TransitionStatus", id, err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE executions SET status = $2, updated_at = $3 WHERE id = $1`, id, to, now)
	if err != nil {
		return nil, persistence.NewExecutionError("TransitionStatus", id, err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	execution.Status = to
	execution.UpdatedAt = now

	return execution, nil
}

func (r *ExecutionRepository) collect(ctx context.Context, rows *sql.Rows) ([]*models.Execution, error) {
	defer closeRows(ctx, r.logger, rows)

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution      models.Execution
		currentStepID  sql.NullString
		nextWakeAt     sql.NullTime
		dataJSON       []byte
		stepsJSON      []byte
		completedAt    sql.NullTime
		leaseOwner     sql.NullString
		leaseExpiresAt sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.JourneyID,
		&execution.ContactID,
		&execution.Status,
		&currentStepID,
		&nextWakeAt,
		&dataJSON,
		&stepsJSON,
		&execution.StartedAt,
		&completedAt,
		&execution.FailureReason,
		&leaseOwner,
		&leaseExpiresAt,
		&execution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if currentStepID.Valid {
		execution.CurrentStepID = &currentStepID.String
	}

	execution.NextWakeAt = timePtr(nextWakeAt)
	execution.CompletedAt = timePtr(completedAt)
	execution.LeaseExpiresAt = timePtr(leaseExpiresAt)
	execution.LeaseOwner = leaseOwner.String
	execution.StartedAt = execution.StartedAt.UTC()
	execution.UpdatedAt = execution.UpdatedAt.UTC()

	err = json.Unmarshal(dataJSON, &execution.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal data of execution %s: %w", execution.ID, err)
	}

	if len(stepsJSON) > 0 {
		err = json.Unmarshal(stepsJSON, &execution.Steps)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps of execution %s: %w", execution.ID, err)
		}
	}

	return &execution, nil
}

// marshalExecution encodes the data log and the snapshot steps. Steps are
// NULL for executions that follow the live definition.
func marshalExecution(execution *models.Execution) ([]byte, sql.Null[[]byte], error) {
	var steps sql.Null[[]byte]

	data := execution.Data
	if data == nil {
		data = models.ExecutionData{}
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, steps, fmt.Errorf("failed to marshal execution data: %w", err)
	}

	if execution.Steps == nil {
		return dataJSON, steps, nil
	}

	steps.V, err = json.Marshal(execution.Steps)
	if err != nil {
		return nil, steps, fmt.Errorf("failed to marshal execution steps: %w", err)
	}

	steps.Valid = true

	return dataJSON, steps, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == constraint
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	utc := t.Time.UTC()

	return &utc
}
