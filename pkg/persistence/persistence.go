// Package persistence provides the storage abstraction for journey definitions and execution records.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/journeys/pkg/models"
)

type Persistence interface {
	JourneyRepository
	ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type JourneyRepository interface {
	Journeys(ctx context.Context) ([]*models.Journey, error)
	JourneyByID(ctx context.Context, id string) (*models.Journey, error)
	SaveJourney(ctx context.Context, journey *models.Journey) error
	DeleteJourney(ctx context.Context, id string) error
}

type ExecutionRepository interface {
	// CreateExecution stores a new execution. It fails with
	// ErrDuplicateExecution when a running or paused execution already exists
	// for the same journey and contact.
	CreateExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	// ActiveExecution returns the running or paused execution of contactID
	// in journeyID, or ErrExecutionNotFound.
	ActiveExecution(ctx context.Context, journeyID, contactID string) (*models.Execution, error)
	ExecutionsByJourney(ctx context.Context, journeyID string) ([]*models.Execution, error)

	// ClaimDueExecutions leases up to limit running executions that are due
	// at now and not leased by anyone else. Selecting and leasing is atomic,
	// so concurrent callers never receive the same execution.
	ClaimDueExecutions(ctx context.Context, owner string, now time.Time, ttl time.Duration, limit int) ([]*models.Execution, error)
	// SaveClaimed writes execution and releases the lease held by owner. It
	// fails with ErrLeaseLost if owner no longer holds the lease.
	SaveClaimed(ctx context.Context, execution *models.Execution, owner string) error
	// TransitionStatus flips the status of an unleased execution from one
	// value to another. Leased executions fail with ErrExecutionBusy and
	// executions in any other status with ErrInvalidStatusTransition.
	TransitionStatus(ctx context.Context, id string, from, to models.ExecutionStatus, now time.Time) (*models.Execution, error)
}
