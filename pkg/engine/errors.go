package engine

import (
	"errors"
	"fmt"

	"github.com/dukex/journeys/pkg/persistence"
)

var (
	// ErrJourneyNotExecutable is returned when a journey is not active or has no steps.
	ErrJourneyNotExecutable = errors.New("journey is not executable")
	// ErrNoEntryStep is returned when no first step can be resolved.
	ErrNoEntryStep = errors.New("journey has no entry step")
	// ErrStepNotFound fails an execution whose current step left the definition.
	ErrStepNotFound = errors.New("current step not found in journey")

	ErrJourneyNotFound    = persistence.ErrJourneyNotFound
	ErrDuplicateExecution = persistence.ErrDuplicateExecution
	ErrExecutionNotFound  = persistence.ErrExecutionNotFound
	ErrExecutionBusy      = persistence.ErrExecutionBusy
	ErrLeaseLost          = persistence.ErrLeaseLost
	ErrInvalidTransition  = persistence.ErrInvalidStatusTransition
)

// StartError reports why a contact could not be enrolled in a journey.
type StartError struct {
	JourneyID string
	ContactID string
	Err       error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start journey %s for contact %s: %v", e.JourneyID, e.ContactID, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

func (e *StartError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsStartRejected reports whether err is a validation outcome of StartJourney
// rather than an infrastructure failure.
func IsStartRejected(err error) bool {
	return errors.Is(err, ErrJourneyNotExecutable) ||
		errors.Is(err, ErrDuplicateExecution) ||
		errors.Is(err, ErrNoEntryStep)
}
