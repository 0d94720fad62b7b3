package web

import (
	"time"

	"github.com/dukex/journeys/pkg/execcontext"
	"github.com/dukex/journeys/pkg/models"
)

// StartExecutionRequest enrolls a contact in the journey named by the path.
type StartExecutionRequest struct {
	ContactID string `json:"contact_id" validate:"required"`
}

// ExecutionResponse is the API view of an execution record. Data groups the
// log by list key (emails_sent, tasks_created, ...); Log keeps record order.
// Lease fields are internal to runners and not exposed.
type ExecutionResponse struct {
	ID            string                      `json:"id"`
	JourneyID     string                      `json:"journey_id"`
	ContactID     string                      `json:"contact_id"`
	Status        models.ExecutionStatus      `json:"status"`
	CurrentStepID *string                     `json:"current_step_id"`
	NextWakeAt    *time.Time                  `json:"next_wake_at"`
	Data          map[string][]map[string]any `json:"execution_data"`
	Log           models.ExecutionData        `json:"execution_log"`
	StartedAt     time.Time                   `json:"started_at"`
	CompletedAt   *time.Time                  `json:"completed_at,omitempty"`
	FailureReason string                      `json:"failure_reason,omitempty"`
}

func NewExecutionResponse(execution *models.Execution) ExecutionResponse {
	return ExecutionResponse{
		ID:            execution.ID,
		JourneyID:     execution.JourneyID,
		ContactID:     execution.ContactID,
		Status:        execution.Status,
		CurrentStepID: execution.CurrentStepID,
		NextWakeAt:    execution.NextWakeAt,
		Data:          execcontext.Lists(execution.Data),
		Log:           execution.Data,
		StartedAt:     execution.StartedAt,
		CompletedAt:   execution.CompletedAt,
		FailureReason: execution.FailureReason,
	}
}

// SaveJourneyResponse echoes a stored definition and lists the ids of steps
// whose kind no registered action handles. Such steps run as no-ops.
type SaveJourneyResponse struct {
	Journey        *models.Journey `json:"journey"`
	UnhandledSteps []string        `json:"unhandled_steps,omitempty"`
}
