// Package models defines the core domain models for contact journeys.
package models

import (
	"sort"
	"time"
)

// JourneyStatus represents the lifecycle state of a journey.
type JourneyStatus string

const (
	JourneyStatusDraft    JourneyStatus = "draft"    // Editable, not executable
	JourneyStatusActive   JourneyStatus = "active"   // Accepts new executions
	JourneyStatusPaused   JourneyStatus = "paused"   // No new executions, in-flight ones continue
	JourneyStatusArchived JourneyStatus = "archived" // Historical
)

// Journey is a reusable, ordered sequence of steps instantiated per contact.
type Journey struct {
	ID          string        `json:"id"                    validate:"required"`
	Name        string        `json:"name"                  validate:"required,min=1"`
	Description string        `json:"description,omitempty"`
	Status      JourneyStatus `json:"status"                validate:"required,oneof=draft active paused archived"`
	Steps       []*Step       `json:"steps"                 validate:"dive,required"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsExecutable reports whether new executions may be started for the journey.
func (j *Journey) IsExecutable() bool {
	return j.Status == JourneyStatusActive && len(j.Steps) > 0
}

// OrderedSteps returns the steps sorted by position. The journey is not modified.
func (j *Journey) OrderedSteps() []*Step {
	steps := make([]*Step, len(j.Steps))
	copy(steps, j.Steps)

	sort.SliceStable(steps, func(a, b int) bool {
		return steps[a].Position < steps[b].Position
	})

	return steps
}

// FirstStep returns the lowest-position step, or nil when the journey has no steps.
func (j *Journey) FirstStep() *Step {
	return FirstStep(j.Steps)
}

// NextStep returns the step that follows stepID in position order, or nil when
// stepID was the last step or is no longer part of the journey.
func (j *Journey) NextStep(stepID string) *Step {
	return NextStep(j.Steps, stepID)
}

// StepByID finds a step by its identifier.
func (j *Journey) StepByID(stepID string) *Step {
	return StepByID(j.Steps, stepID)
}

// FirstStep returns the lowest-position step in steps.
func FirstStep(steps []*Step) *Step {
	var first *Step

	for _, step := range steps {
		if first == nil || step.Position < first.Position {
			first = step
		}
	}

	return first
}

// NextStep returns the step with the smallest position greater than the
// position of stepID.
func NextStep(steps []*Step, stepID string) *Step {
	current := StepByID(steps, stepID)
	if current == nil {
		return nil
	}

	var next *Step

	for _, step := range steps {
		if step.Position <= current.Position || step.ID == current.ID {
			continue
		}

		if next == nil || step.Position < next.Position {
			next = step
		}
	}

	return next
}

// StepByID finds a step by its identifier.
func StepByID(steps []*Step, stepID string) *Step {
	for _, step := range steps {
		if step.ID == stepID {
			return step
		}
	}

	return nil
}
