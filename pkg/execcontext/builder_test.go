package execcontext

import (
	"testing"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	contact := &models.Contact{
		ID:          "c-1",
		Email:       "ada@example.com",
		CompanyName: "Analytical Engines",
		OwnerID:     "u-7",
		LeadScore:   40,
		Tags:        []string{"lead"},
		Attributes:  map[string]any{"plan": "pro", "email": "shadowed@example.com"},
	}

	execution := &models.Execution{
		ID:        "e-1",
		JourneyID: "j-1",
		ContactID: "c-1",
		Data: models.ExecutionData{
			{Kind: models.DataEntryEmailSent, StepID: "welcome", At: now, Data: map[string]any{"template_id": "tpl-1"}},
			{Kind: models.DataEntryConditionResult, StepID: "hot", At: now, Data: map[string]any{"result": true}},
		},
	}

	values := Build(contact, execution)

	assert.Equal(t, "c-1", values[KeyContactID])
	assert.Equal(t, "ada@example.com", values["email"])
	assert.Equal(t, "pro", values["plan"])
	assert.Equal(t, 40, values["lead_score"])
	assert.Equal(t, []string{"lead"}, values["tags"])
	assert.Equal(t, "j-1", values[KeyJourneyID])
	assert.Equal(t, "e-1", values[KeyExecutionID])

	emails, ok := values[KeyEmailsSent].([]map[string]any)
	require.True(t, ok)
	require.Len(t, emails, 1)
	assert.Equal(t, "tpl-1", emails[0]["template_id"])
	assert.Equal(t, "welcome", emails[0]["step_id"])
	assert.Equal(t, 1, values[KeyEmailsSent+"_count"])
	assert.Equal(t, 0, values[KeyTasksCreated+"_count"])
	assert.Equal(t, true, values["condition.hot"])
}

func TestBuild_DoesNotAliasContactTags(t *testing.T) {
	contact := &models.Contact{ID: "c-1", Tags: []string{"a"}}

	values := Build(contact, nil)
	values["tags"].([]string)[0] = "b"

	assert.Equal(t, "a", contact.Tags[0])
	assert.NotContains(t, values, KeyJourneyID)
}

func TestLists(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	data := models.ExecutionData{
		{Kind: models.DataEntryEmailSent, StepID: "welcome", At: at, Data: map[string]any{"template_id": "tpl-1"}},
		{Kind: models.DataEntryEmailSent, StepID: "reminder", At: at, Data: map[string]any{"template_id": "tpl-2"}},
	}

	lists := Lists(data)

	require.Len(t, lists[KeyEmailsSent], 2)
	assert.Equal(t, "welcome", lists[KeyEmailsSent][0]["step_id"])
	assert.Equal(t, "tpl-2", lists[KeyEmailsSent][1]["template_id"])
	assert.NotNil(t, lists[KeyDealsCreated])
	assert.Empty(t, lists[KeyDealsCreated])
}
