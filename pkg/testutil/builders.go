// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"log/slog"
	"os"
	"time"

	"github.com/dukex/journeys/pkg/execcontext"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/google/uuid"
)

// Now is the fixed instant test builders stamp records with.
var Now = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

// Logger returns a logger that only prints errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// CreateTestContact creates a contact with default values that can be overridden.
func CreateTestContact(overrides ...func(*models.Contact)) *models.Contact {
	contact := &models.Contact{
		ID:        uuid.New().String(),
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		OwnerID:   "owner-1",
		LeadScore: 0,
	}

	for _, override := range overrides {
		override(contact)
	}

	return contact
}

// CreateTestJourney creates an active journey with steps positioned in order.
func CreateTestJourney(steps ...*models.Step) *models.Journey {
	for i, step := range steps {
		if step.Position == 0 {
			step.Position = (i + 1) * 10
		}
	}

	return &models.Journey{
		ID:        uuid.New().String(),
		Name:      "Test Journey",
		Status:    models.JourneyStatusActive,
		Steps:     steps,
		CreatedAt: Now,
		UpdatedAt: Now,
	}
}

// Step creates a step of kind with config.
func Step(id string, kind models.StepKind, config models.StepConfig, conditions ...models.Condition) *models.Step {
	return &models.Step{
		ID:         id,
		Name:       id,
		Kind:       kind,
		Config:     config,
		Conditions: conditions,
	}
}

// ActionContext builds the context an action receives for contact.
func ActionContext(contact *models.Contact) *protocol.ActionContext {
	execution := &models.Execution{
		ID:        uuid.New().String(),
		JourneyID: "journey-1",
		ContactID: contact.ID,
		Status:    models.ExecutionStatusRunning,
		StartedAt: Now,
	}

	return &protocol.ActionContext{
		Execution: execution,
		Contact:   contact,
		Values:    execcontext.Build(contact, execution),
		Now:       Now,
		Logger:    Logger(),
	}
}
