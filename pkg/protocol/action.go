// Package protocol defines the contracts between the journey engine, its step
// actions and the external systems they act upon.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/journeys/pkg/models"
)

// Action performs the side effect of one step kind.
type Action interface {
	Kind() models.StepKind
	// Execute runs step for the execution described by actx. A returned error
	// fails the execution; it is never treated as a skipped step.
	Execute(ctx context.Context, step *models.Step, actx *ActionContext) (Outcome, error)
}

// ActionContext is the read-only view an action gets of the execution being advanced.
type ActionContext struct {
	Execution *models.Execution
	Contact   *models.Contact
	// Values is the flattened evaluation context for this advance.
	Values map[string]any
	Now    time.Time
	Logger *slog.Logger
}

// Outcome is what an action asks the engine to apply to the execution.
type Outcome struct {
	// Entries are appended to the execution data log.
	Entries []models.DataEntry
	// Complete ends the execution without resolving a next step.
	Complete bool
}

// Entry builds a data entry for step stamped at actx.Now.
func (actx *ActionContext) Entry(kind models.DataEntryKind, step *models.Step, data map[string]any) models.DataEntry {
	return models.DataEntry{
		Kind:   kind,
		StepID: step.ID,
		At:     actx.Now,
		Data:   data,
	}
}

// ErrConfigMismatch is returned when a step carries the config of another kind.
var ErrConfigMismatch = errors.New("step config does not match action")

// StepConfig returns step's config as T.
func StepConfig[T models.StepConfig](step *models.Step) (T, error) {
	config, ok := step.Config.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("%w: step %s has %T, want %T", ErrConfigMismatch, step.ID, step.Config, zero)
	}

	return config, nil
}
