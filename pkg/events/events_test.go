package events

import (
	"testing"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	execution := &models.Execution{ID: "e-1", JourneyID: "j-1", ContactID: "c-1"}

	base := NewBaseEvent(StepExecutedEvent, execution, now)

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, StepExecutedEvent, base.Type)
	assert.Equal(t, "j-1", base.JourneyID)
	assert.Equal(t, "c-1", base.ContactID)
	assert.Equal(t, "e-1", base.Key())
	assert.Equal(t, time.UTC, base.Timestamp.Location())
}

func TestNew_CoversEveryEventType(t *testing.T) {
	for _, eventType := range EventTypes {
		event, ok := New(eventType)
		require.True(t, ok, eventType)
		assert.Equal(t, eventType, event.GetType())
	}

	_, ok := New("workflow.triggered")
	assert.False(t, ok)
}
