package engine

import (
	"context"
	"log/slog"

	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
)

// PauseExecution moves a running execution to paused. Its cursor and wake
// time are kept.
func (e *Engine) PauseExecution(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := e.executions.TransitionStatus(ctx, executionID,
		models.ExecutionStatusRunning, models.ExecutionStatusPaused, e.now())
	if err != nil {
		return nil, err
	}

	executionLogger(e.logger, execution).InfoContext(ctx, "Execution paused")

	e.notify(ctx, events.ExecutionPaused{
		BaseEvent: e.baseEvent(events.ExecutionPausedEvent, execution),
		StepID:    currentStepID(execution),
	})

	return execution, nil
}

// ResumeExecution moves a paused execution back to running. An execution
// whose wake time passed while paused is due on the next poll.
func (e *Engine) ResumeExecution(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := e.executions.TransitionStatus(ctx, executionID,
		models.ExecutionStatusPaused, models.ExecutionStatusRunning, e.now())
	if err != nil {
		return nil, err
	}

	logger := executionLogger(e.logger, execution)
	if execution.NextWakeAt != nil {
		logger = logger.With(slog.Time("next_wake_at", *execution.NextWakeAt))
	}

	logger.InfoContext(ctx, "Execution resumed")

	e.notify(ctx, events.ExecutionResumed{
		BaseEvent: e.baseEvent(events.ExecutionResumedEvent, execution),
		StepID:    currentStepID(execution),
	})

	return execution, nil
}
