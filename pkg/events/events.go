// Package events defines event types and structures for journey execution lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic is the Kafka topic journey lifecycle events are published to.
const Topic = "journeys.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionResumedEvent   EventType = "execution.resumed"

	StepExecutedEvent    EventType = "step.executed"
	StepSkippedEvent     EventType = "step.skipped"
	StepUnknownKindEvent EventType = "step.unknown_kind"
)

// EventTypes lists every lifecycle event the engine emits.
var EventTypes = []EventType{
	ExecutionStartedEvent,
	ExecutionCompletedEvent,
	ExecutionFailedEvent,
	ExecutionPausedEvent,
	ExecutionResumedEvent,
	StepExecutedEvent,
	StepSkippedEvent,
	StepUnknownKindEvent,
}

// Event is implemented by every lifecycle event.
type Event interface {
	GetType() EventType
	// Key groups events of the same execution, e.g. as a Kafka partition key.
	Key() string
}

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	JourneyID   string         `json:"journey_id"`
	ExecutionID string         `json:"execution_id"`
	ContactID   string         `json:"contact_id"`
	WorkerID    string         `json:"worker_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (b BaseEvent) Key() string {
	return b.ExecutionID
}

type ExecutionStarted struct {
	BaseEvent

	FirstStepID string `json:"first_step_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	StepID string `json:"step_id,omitempty"`
	Error  string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionPaused struct {
	BaseEvent

	StepID string `json:"step_id,omitempty"`
}

func (e ExecutionPaused) GetType() EventType {
	return ExecutionPausedEvent
}

type ExecutionResumed struct {
	BaseEvent

	StepID string `json:"step_id,omitempty"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type StepExecuted struct {
	BaseEvent

	StepID     string                 `json:"step_id"`
	StepKind   models.StepKind        `json:"step_kind"`
	Entries    []models.DataEntry     `json:"entries,omitempty"`
	NextStepID string                 `json:"next_step_id,omitempty"`
	NextWakeAt *time.Time             `json:"next_wake_at,omitempty"`
	Status     models.ExecutionStatus `json:"status"`
}

func (e StepExecuted) GetType() EventType {
	return StepExecutedEvent
}

// StepSkipped is emitted when a step's conditions were not met.
type StepSkipped struct {
	BaseEvent

	StepID   string          `json:"step_id"`
	StepKind models.StepKind `json:"step_kind"`
}

func (e StepSkipped) GetType() EventType {
	return StepSkippedEvent
}

type StepUnknownKind struct {
	BaseEvent

	StepID   string          `json:"step_id"`
	StepKind models.StepKind `json:"step_kind"`
}

func (e StepUnknownKind) GetType() EventType {
	return StepUnknownKindEvent
}

// NewBaseEvent fills the common fields from execution.
func NewBaseEvent(eventType EventType, execution *models.Execution, now time.Time) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   now.UTC(),
		JourneyID:   execution.JourneyID,
		ExecutionID: execution.ID,
		ContactID:   execution.ContactID,
		Metadata:    make(map[string]any),
	}
}

// New returns an empty event value of eventType, ready for decoding.
func New(eventType EventType) (Event, bool) {
	switch eventType {
	case ExecutionStartedEvent:
		return &ExecutionStarted{}, true
	case ExecutionCompletedEvent:
		return &ExecutionCompleted{}, true
	case ExecutionFailedEvent:
		return &ExecutionFailed{}, true
	case ExecutionPausedEvent:
		return &ExecutionPaused{}, true
	case ExecutionResumedEvent:
		return &ExecutionResumed{}, true
	case StepExecutedEvent:
		return &StepExecuted{}, true
	case StepSkippedEvent:
		return &StepSkipped{}, true
	case StepUnknownKindEvent:
		return &StepUnknownKind{}, true
	default:
		return nil, false
	}
}
