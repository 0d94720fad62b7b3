package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/otelhelper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// StartJourney enrolls contactID in journeyID. The new execution is positioned
// at the first step and, when that step is due, advanced once before returning.
// A failing first step is reported through the returned execution's status,
// not as an error.
func (e *Engine) StartJourney(ctx context.Context, journeyID, contactID string) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.start_journey",
		attribute.String(otelhelper.JourneyIDKey, journeyID),
		attribute.String(otelhelper.ContactIDKey, contactID),
	)
	defer span.End()

	logger := e.logger.With(slog.String("journey_id", journeyID), slog.String("contact_id", contactID))

	reject := func(err error) (*models.Execution, error) {
		otelhelper.SetError(span, err)

		return nil, &StartError{JourneyID: journeyID, ContactID: contactID, Err: err}
	}

	journey, err := e.journeys.JourneyByID(ctx, journeyID)
	if err != nil {
		return reject(err)
	}

	if !journey.IsExecutable() {
		logger.InfoContext(ctx, "Journey is not executable", slog.String("status", string(journey.Status)))

		return reject(fmt.Errorf("%w: status %s with %d steps", ErrJourneyNotExecutable, journey.Status, len(journey.Steps)))
	}

	_, err = e.contacts.Get(ctx, contactID)
	if err != nil {
		return reject(err)
	}

	_, err = e.executions.ActiveExecution(ctx, journeyID, contactID)
	if err == nil {
		return reject(ErrDuplicateExecution)
	}

	if !errors.Is(err, ErrExecutionNotFound) {
		return reject(err)
	}

	first := journey.FirstStep()
	if first == nil {
		return reject(ErrNoEntryStep)
	}

	now := e.now()
	leaseExpiresAt := now.Add(e.config.LeaseDuration)

	execution := &models.Execution{
		ID:             uuid.New().String(),
		JourneyID:      journey.ID,
		ContactID:      contactID,
		Status:         models.ExecutionStatusRunning,
		Data:           models.ExecutionData{},
		StartedAt:      now,
		UpdatedAt:      now,
		LeaseOwner:     e.config.WorkerID,
		LeaseExpiresAt: &leaseExpiresAt,
	}
	execution.MoveTo(first, wakeAt(first, now))

	if e.config.DefinitionMode == DefinitionModeSnapshot {
		execution.Steps, err = cloneSteps(journey.Steps)
		if err != nil {
			return reject(err)
		}
	}

	err = e.executions.CreateExecution(ctx, execution)
	if err != nil {
		return reject(err)
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID))

	executionLogger(e.logger, execution).InfoContext(ctx, "Journey started",
		slog.String("first_step_id", first.ID),
		slog.Time("next_wake_at", *execution.NextWakeAt),
	)

	e.notify(ctx, events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent, execution),
		FirstStepID: first.ID,
	})

	err = e.runClaimed(ctx, execution, 1)
	if err != nil && !errors.Is(err, errStepFailed) {
		otelhelper.SetError(span, err)

		return execution, err
	}

	return execution, nil
}

func cloneSteps(steps []*models.Step) ([]*models.Step, error) {
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot steps: %w", err)
	}

	var clone []*models.Step

	err = json.Unmarshal(data, &clone)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot steps: %w", err)
	}

	return clone, nil
}
