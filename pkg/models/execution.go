package models

import (
	"encoding/json"
	"time"
)

// ExecutionStatus defines the possible states of a journey execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// Execution is the runtime cursor of one journey for one contact.
type Execution struct {
	ID            string          `json:"id"`
	JourneyID     string          `json:"journey_id"`
	ContactID     string          `json:"contact_id"`
	Status        ExecutionStatus `json:"status"`
	CurrentStepID *string         `json:"current_step_id,omitempty"`
	NextWakeAt    *time.Time      `json:"next_wake_at,omitempty"`
	Data          ExecutionData   `json:"execution_data"`
	// Steps holds the definition captured at start when snapshot mode is enabled.
	Steps          []*Step    `json:"steps,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	LeaseOwner     string     `json:"lease_owner,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsActive reports whether the execution is running or paused.
func (e *Execution) IsActive() bool {
	return !e.Status.IsTerminal()
}

// IsDue reports whether a running execution may be advanced at now.
func (e *Execution) IsDue(now time.Time) bool {
	if e.Status != ExecutionStatusRunning {
		return false
	}

	return e.NextWakeAt == nil || !e.NextWakeAt.After(now)
}

// IsLeased reports whether a runner holds an unexpired lease at now.
func (e *Execution) IsLeased(now time.Time) bool {
	return e.LeaseOwner != "" && e.LeaseExpiresAt != nil && e.LeaseExpiresAt.After(now)
}

// MoveTo makes step the current step, due at wakeAt.
func (e *Execution) MoveTo(step *Step, wakeAt time.Time) {
	stepID := step.ID
	e.CurrentStepID = &stepID
	e.NextWakeAt = &wakeAt
}

// Complete marks the execution as completed at now.
func (e *Execution) Complete(now time.Time) {
	e.Status = ExecutionStatusCompleted
	e.CurrentStepID = nil
	e.NextWakeAt = nil
	e.CompletedAt = &now
}

// Fail marks the execution as failed with reason.
func (e *Execution) Fail(reason string) {
	e.Status = ExecutionStatusFailed
	e.NextWakeAt = nil
	e.FailureReason = reason
}

// Record appends an entry to the execution data log.
func (e *Execution) Record(entries ...DataEntry) {
	e.Data = append(e.Data, entries...)
}

// Clone returns a deep copy of the execution.
func (e *Execution) Clone() *Execution {
	data, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}

	var clone Execution

	err = json.Unmarshal(data, &clone)
	if err != nil {
		panic(err)
	}

	return &clone
}

// DataEntryKind tags an execution data entry.
type DataEntryKind string

const (
	DataEntryEmailSent       DataEntryKind = "email_sent"
	DataEntrySMSSent         DataEntryKind = "sms_sent"
	DataEntryTaskCreated     DataEntryKind = "task_created"
	DataEntryDealCreated     DataEntryKind = "deal_created"
	DataEntryConditionResult DataEntryKind = "condition_result"
	DataEntryWebhookCalled   DataEntryKind = "webhook_called"
	DataEntryContactUpdated  DataEntryKind = "contact_updated"
)

// DataEntry is one item of the append-only execution log.
type DataEntry struct {
	Kind   DataEntryKind  `json:"kind"`
	StepID string         `json:"step_id"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}

// ExecutionData is the ordered execution log.
type ExecutionData []DataEntry

// ByKind returns the entries of kind in log order.
func (d ExecutionData) ByKind(kind DataEntryKind) []DataEntry {
	entries := make([]DataEntry, 0)

	for _, entry := range d {
		if entry.Kind == kind {
			entries = append(entries, entry)
		}
	}

	return entries
}
