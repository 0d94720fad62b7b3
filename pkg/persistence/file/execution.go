package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukex/journeys/pkg/lease"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
)

const (
	executionsLockKey = "executions"
	executionsLockTTL = 30 * time.Second
)

// ExecutionRepository handles execution-related file operations. Writes are
// serialized by an in-process mutex and, when configured, a cross-process lock.
type ExecutionRepository struct {
	root   string
	mu     sync.Mutex
	locker lease.Locker
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

func (er *ExecutionRepository) path(id string) string {
	return filepath.Join(er.dir(), id+".json")
}

func (er *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.Execution) error {
	err := validateID(execution.ID)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	return er.withLock(ctx, func() error {
		all, err := er.readAll()
		if err != nil {
			return persistence.NewExecutionError("CreateExecution", execution.ID, err)
		}

		for _, existing := range all {
			if existing.ID == execution.ID {
				return persistence.NewExecutionError("CreateExecution", execution.ID, fmt.Errorf("execution already exists"))
			}

			if existing.JourneyID == execution.JourneyID &&
				existing.ContactID == execution.ContactID &&
				existing.IsActive() {
				return persistence.NewExecutionError("CreateExecution", execution.ID, persistence.ErrDuplicateExecution)
			}
		}

		return er.write(execution)
	})
}

func (er *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	err := validateID(id)
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	execution, err := er.read(id)
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return execution, nil
}

func (er *ExecutionRepository) ActiveExecution(_ context.Context, journeyID, contactID string) (*models.Execution, error) {
	all, err := er.readAll()
	if err != nil {
		return nil, err
	}

	for _, execution := range all {
		if execution.JourneyID == journeyID && execution.ContactID == contactID && execution.IsActive() {
			return execution, nil
		}
	}

	return nil, persistence.NewExecutionError("ActiveExecution", journeyID+"/"+contactID, persistence.ErrExecutionNotFound)
}

// ExecutionsByJourney returns the executions of journeyID, oldest first.
func (er *ExecutionRepository) ExecutionsByJourney(_ context.Context, journeyID string) ([]*models.Execution, error) {
	all, err := er.readAll()
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0)

	for _, execution := range all {
		if execution.JourneyID == journeyID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}

func (er *ExecutionRepository) ClaimDueExecutions(ctx context.Context, owner string, now time.Time, ttl time.Duration, limit int) ([]*models.Execution, error) {
	var claimed []*models.Execution

	err := er.withLock(ctx, func() error {
		all, err := er.readAll()
		if err != nil {
			return err
		}

		due := make([]*models.Execution, 0)

		for _, execution := range all {
			if execution.IsDue(now) && !execution.IsLeased(now) {
				due = append(due, execution)
			}
		}

		sort.Slice(due, func(i, j int) bool {
			wi, wj := wakeTime(due[i]), wakeTime(due[j])
			if !wi.Equal(wj) {
				return wi.Before(wj)
			}

			if !due[i].StartedAt.Equal(due[j].StartedAt) {
				return due[i].StartedAt.Before(due[j].StartedAt)
			}

			return due[i].ID < due[j].ID
		})

		if limit > 0 && len(due) > limit {
			due = due[:limit]
		}

		expiresAt := now.Add(ttl)

		for _, execution := range due {
			execution.LeaseOwner = owner
			execution.LeaseExpiresAt = &expiresAt

			err := er.write(execution)
			if err != nil {
				return err
			}

			claimed = append(claimed, execution)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim due executions: %w", err)
	}

	return claimed, nil
}

func (er *ExecutionRepository) SaveClaimed(ctx context.Context, execution *models.Execution, owner string) error {
	return er.withLock(ctx, func() error {
		current, err := er.read(execution.ID)
		if err != nil {
			return persistence.NewExecutionError("SaveClaimed", execution.ID, err)
		}

		if current.LeaseOwner != owner {
			return persistence.NewExecutionError("SaveClaimed", execution.ID, persistence.ErrLeaseLost)
		}

		execution.LeaseOwner = ""
		execution.LeaseExpiresAt = nil

		return er.write(execution)
	})
}

func (er *ExecutionRepository) TransitionStatus(ctx context.Context, id string, from, to models.ExecutionStatus, now time.Time) (*models.Execution, error) {
	err := validateID(id)
	if err != nil {
		return nil, persistence.NewExecutionError("TransitionStatus", id, err)
	}

	var updated *models.Execution

	err = er.withLock(ctx, func() error {
		execution, err := er.read(id)
		if err != nil {
			return err
		}

		if execution.IsLeased(now) {
			return persistence.ErrExecutionBusy
		}

		if execution.Status != from {
			return fmt.Errorf("%w: execution is %s, not %s", persistence.ErrInvalidStatusTransition, execution.Status, from)
		}

		execution.Status = to
		execution.UpdatedAt = now

		updated = execution

		return er.write(execution)
	})
	if err != nil {
		return nil, persistence.NewExecutionError("TransitionStatus", id, err)
	}

	return updated, nil
}

func (er *ExecutionRepository) withLock(ctx context.Context, fn func() error) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	if er.locker == nil {
		return fn()
	}

	lock, err := er.locker.Acquire(ctx, executionsLockKey, executionsLockTTL)
	if err != nil {
		return err
	}

	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	return fn()
}

func (er *ExecutionRepository) read(id string) (*models.Execution, error) {
	data, err := os.ReadFile(er.path(id)) // #nosec G304 -- callers validate id
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (er *ExecutionRepository) readAll() ([]*models.Execution, error) {
	entries, err := os.ReadDir(er.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	executions := make([]*models.Execution, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}

		execution, err := er.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

func (er *ExecutionRepository) write(execution *models.Execution) error {
	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	return writeAtomic(er.path(execution.ID), data)
}

func wakeTime(execution *models.Execution) time.Time {
	if execution.NextWakeAt == nil {
		return time.Time{}
	}

	return *execution.NextWakeAt
}
