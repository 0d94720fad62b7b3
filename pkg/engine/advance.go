package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/journeys/pkg/condition"
	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/execcontext"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/otelhelper"
	"github.com/dukex/journeys/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// errStepFailed marks an error that already failed and persisted the execution.
	errStepFailed = errors.New("step failed")
	// errInterrupted marks a step abandoned because the caller's context ended.
	// The execution keeps its cursor and the step runs again on a later claim.
	errInterrupted = errors.New("step interrupted")
)

// Advance applies exactly one transition to execution and persists it. The
// caller must hold the execution's lease; it is released by the write.
func (e *Engine) Advance(ctx context.Context, execution *models.Execution) error {
	return e.runClaimed(ctx, execution, 1)
}

// runClaimed applies up to maxSteps transitions while execution stays due and
// running, then writes it back with a single SaveClaimed.
func (e *Engine) runClaimed(ctx context.Context, execution *models.Execution, maxSteps int) error {
	logger := executionLogger(e.logger, execution)

	var stepErr error

	for range maxSteps {
		if !execution.IsDue(e.now()) {
			break
		}

		stepID := currentStepID(execution)

		err := e.transition(ctx, execution, logger)
		if err != nil && ctx.Err() != nil {
			logger.WarnContext(ctx, "Step interrupted, releasing claim",
				slog.String("step_id", stepID), slog.Any("error", err))

			stepErr = fmt.Errorf("%w: %w", errInterrupted, ctx.Err())

			break
		}

		if err != nil {
			stepErr = fmt.Errorf("%w: %w", errStepFailed, err)

			e.fail(ctx, execution, stepID, err, logger)

			break
		}
	}

	// Progress is written even when ctx ended so the claim is released.
	err := e.executions.SaveClaimed(context.WithoutCancel(ctx), execution, e.config.WorkerID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution", slog.Any("error", err))

		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	return stepErr
}

func (e *Engine) fail(ctx context.Context, execution *models.Execution, stepID string, err error, logger *slog.Logger) {
	execution.Fail(err.Error())
	execution.UpdatedAt = e.now()

	logger.ErrorContext(ctx, "Execution failed", slog.String("step_id", stepID), slog.Any("error", err))

	e.notify(ctx, events.ExecutionFailed{
		BaseEvent: e.baseEvent(events.ExecutionFailedEvent, execution),
		StepID:    stepID,
		Error:     err.Error(),
	})
}

// transition runs the current step and moves the cursor in memory.
func (e *Engine) transition(ctx context.Context, execution *models.Execution, logger *slog.Logger) error {
	now := e.now()

	steps, err := e.stepsFor(ctx, execution)
	if err != nil {
		return err
	}

	step := models.StepByID(steps, currentStepID(execution))
	if step == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, currentStepID(execution))
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.step",
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepKindKey, string(step.Kind)),
	)
	defer span.End()

	logger = logger.With(slog.String("step_id", step.ID), slog.String("step_kind", string(step.Kind)))

	contact, err := e.contacts.Get(ctx, execution.ContactID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to load contact %s: %w", execution.ContactID, err)
	}

	values := execcontext.Build(contact, execution)

	var outcome protocol.Outcome

	switch {
	case step.HasConditions() && !condition.Evaluate(values, step.Conditions):
		logger.InfoContext(ctx, "Step conditions not met, skipping action")

		e.notify(ctx, events.StepSkipped{
			BaseEvent: e.baseEvent(events.StepSkippedEvent, execution),
			StepID:    step.ID,
			StepKind:  step.Kind,
		})
	default:
		actx := &protocol.ActionContext{
			Execution: execution,
			Contact:   contact,
			Values:    values,
			Now:       now,
			Logger:    logger,
		}

		var handled bool

		outcome, handled, err = e.registry.Dispatch(ctx, step, actx)
		if err != nil {
			otelhelper.SetError(span, err)

			return err
		}

		if !handled {
			e.notify(ctx, events.StepUnknownKind{
				BaseEvent: e.baseEvent(events.StepUnknownKindEvent, execution),
				StepID:    step.ID,
				StepKind:  step.Kind,
			})
		}
	}

	execution.Record(outcome.Entries...)
	execution.UpdatedAt = now

	next := models.NextStep(steps, step.ID)

	if outcome.Complete || next == nil {
		execution.Complete(now)
	} else {
		execution.MoveTo(next, wakeAt(next, now))
	}

	executed := events.StepExecuted{
		BaseEvent:  e.baseEvent(events.StepExecutedEvent, execution),
		StepID:     step.ID,
		StepKind:   step.Kind,
		Entries:    outcome.Entries,
		NextStepID: currentStepID(execution),
		NextWakeAt: execution.NextWakeAt,
		Status:     execution.Status,
	}
	e.notify(ctx, executed)

	logger.DebugContext(ctx, "Step executed",
		slog.String("next_step_id", executed.NextStepID),
		slog.String("status", string(execution.Status)),
	)

	if execution.Status == models.ExecutionStatusCompleted {
		logger.InfoContext(ctx, "Execution completed")

		e.notify(ctx, events.ExecutionCompleted{
			BaseEvent: e.baseEvent(events.ExecutionCompletedEvent, execution),
			Duration:  now.Sub(execution.StartedAt),
		})
	}

	return nil
}

// stepsFor returns the step list execution advances against.
func (e *Engine) stepsFor(ctx context.Context, execution *models.Execution) ([]*models.Step, error) {
	if e.config.DefinitionMode == DefinitionModeSnapshot && len(execution.Steps) > 0 {
		return execution.Steps, nil
	}

	journey, err := e.journeys.JourneyByID(ctx, execution.JourneyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journey %s: %w", execution.JourneyID, err)
	}

	return journey.Steps, nil
}

// wakeAt returns when step becomes due once it is made current at now.
func wakeAt(step *models.Step, now time.Time) time.Time {
	if step.Kind != models.StepKindWait {
		return now
	}

	config, ok := step.Config.(models.WaitConfig)
	if !ok {
		return now
	}

	return now.Add(config.Duration())
}

func currentStepID(execution *models.Execution) string {
	if execution.CurrentStepID == nil {
		return ""
	}

	return *execution.CurrentStepID
}
