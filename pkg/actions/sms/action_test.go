package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/journeys/pkg/mocks"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAction_Execute(t *testing.T) {
	sender := &mocks.MockSMSSender{}
	sender.On("Send", mock.Anything, "+5511999990000", "Hi Ada, your trial ends soon").Return(nil)

	step := &models.Step{ID: "sms", Kind: models.StepKindSendSMS, Config: models.SendSMSConfig{Message: "Hi {{ .first_name }}, your trial ends soon"}}

	outcome, err := NewAction(sender).Execute(context.Background(), step, testutil.ActionContext(&models.Contact{ID: "c-1", FirstName: "Ada", Phone: "+5511999990000"}))
	require.NoError(t, err)

	require.Len(t, outcome.Entries, 1)
	assert.Equal(t, models.DataEntrySMSSent, outcome.Entries[0].Kind)
	assert.Equal(t, "+5511999990000", outcome.Entries[0].Data["to"])
	sender.AssertExpectations(t)
}

func TestAction_Execute_Failures(t *testing.T) {
	step := &models.Step{ID: "sms", Kind: models.StepKindSendSMS, Config: models.SendSMSConfig{Message: "hello"}}

	_, err := NewAction(&mocks.MockSMSSender{}).Execute(context.Background(), step, testutil.ActionContext(&models.Contact{ID: "c-1"}))
	require.ErrorIs(t, err, ErrNoPhone)

	sender := &mocks.MockSMSSender{}
	sender.On("Send", mock.Anything, "+1", "hello").Return(errors.New("gateway timeout"))

	_, err = NewAction(sender).Execute(context.Background(), step, testutil.ActionContext(&models.Contact{ID: "c-1", Phone: "+1"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway timeout")
}
