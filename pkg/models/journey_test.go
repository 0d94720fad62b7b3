package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJourney() *Journey {
	return &Journey{
		ID:     "welcome",
		Name:   "Welcome",
		Status: JourneyStatusActive,
		Steps: []*Step{
			{ID: "score", Position: 30, Kind: StepKindUpdateLeadScore, Config: LeadScoreConfig{Action: LeadScoreAdd, Points: 10}},
			{ID: "email", Position: 10, Kind: StepKindSendEmail, Config: SendEmailConfig{TemplateID: "tpl-1"}},
			{ID: "wait", Position: 20, Kind: StepKindWait, Config: WaitConfig{Days: 1}},
		},
	}
}

func TestJourney_FirstStep(t *testing.T) {
	journey := testJourney()

	first := journey.FirstStep()
	require.NotNil(t, first)
	assert.Equal(t, "email", first.ID)

	assert.Nil(t, (&Journey{}).FirstStep())
}

func TestJourney_NextStep(t *testing.T) {
	journey := testJourney()

	next := journey.NextStep("email")
	require.NotNil(t, next)
	assert.Equal(t, "wait", next.ID)

	next = journey.NextStep("wait")
	require.NotNil(t, next)
	assert.Equal(t, "score", next.ID)

	assert.Nil(t, journey.NextStep("score"))
	assert.Nil(t, journey.NextStep("missing"))
}

func TestJourney_OrderedSteps(t *testing.T) {
	journey := testJourney()

	ordered := journey.OrderedSteps()

	ids := make([]string, 0, len(ordered))
	for _, step := range ordered {
		ids = append(ids, step.ID)
	}

	assert.Equal(t, []string{"email", "wait", "score"}, ids)
	assert.Equal(t, "score", journey.Steps[0].ID)
}

func TestJourney_IsExecutable(t *testing.T) {
	journey := testJourney()
	assert.True(t, journey.IsExecutable())

	journey.Status = JourneyStatusPaused
	assert.False(t, journey.IsExecutable())

	journey.Status = JourneyStatusActive
	journey.Steps = nil
	assert.False(t, journey.IsExecutable())
}

func TestWaitConfig_Duration(t *testing.T) {
	assert.Equal(t, 24*time.Hour, WaitConfig{Days: 1}.Duration())
	assert.Equal(t, 26*time.Hour+30*time.Minute, WaitConfig{Days: 1, Hours: 2, Minutes: 30}.Duration())
	assert.Equal(t, time.Duration(0), WaitConfig{}.Duration())
}

func TestStep_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"id": "s1",
		"position": 1,
		"kind": "update_lead_score",
		"config": {"action": "subtract", "points": 30},
		"conditions": [{"field": "lead_score", "operator": "greater_than", "value": 50}]
	}`)

	var step Step

	err := json.Unmarshal(data, &step)
	require.NoError(t, err)

	assert.Equal(t, StepKindUpdateLeadScore, step.Kind)
	assert.Equal(t, LeadScoreConfig{Action: LeadScoreSubtract, Points: 30}, step.Config)
	require.Len(t, step.Conditions, 1)
	assert.Equal(t, OperatorGreaterThan, step.Conditions[0].Operator)
	assert.InDelta(t, 50.0, step.Conditions[0].Value, 0)
}

func TestStep_UnmarshalJSON_RejectsUnknownConfigFields(t *testing.T) {
	var step Step

	err := json.Unmarshal([]byte(`{"id":"s1","kind":"wait","config":{"weeks":2}}`), &step)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestStep_UnmarshalJSON_UnknownKind(t *testing.T) {
	var step Step

	err := json.Unmarshal([]byte(`{"id":"s1","kind":"send_fax","config":{"number":"123"}}`), &step)
	require.NoError(t, err)

	assert.Equal(t, RawConfig{"number": "123"}, step.Config)
	assert.False(t, step.Kind.IsKnown())
}

func TestStep_RoundTrip(t *testing.T) {
	original := &Step{ID: "hook", Position: 4, Kind: StepKindWebhook, Config: WebhookConfig{URL: "https://example.com/hook", Method: "POST"}}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Step

	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, original, &decoded)
}

func TestDecodeStepConfig_WebhookMethodUppercased(t *testing.T) {
	config, err := DecodeStepConfig(StepKindWebhook, json.RawMessage(`{"url":"https://example.com","method":"post"}`))
	require.NoError(t, err)

	assert.Equal(t, "POST", config.(WebhookConfig).Method)
}

func TestExecutionData_ByKind(t *testing.T) {
	data := ExecutionData{
		{Kind: DataEntryEmailSent, StepID: "a"},
		{Kind: DataEntryTaskCreated, StepID: "b"},
		{Kind: DataEntryEmailSent, StepID: "c"},
	}

	emails := data.ByKind(DataEntryEmailSent)
	require.Len(t, emails, 2)
	assert.Equal(t, "a", emails[0].StepID)
	assert.Equal(t, "c", emails[1].StepID)
	assert.Empty(t, data.ByKind(DataEntryDealCreated))
}
