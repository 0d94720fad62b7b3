package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/journeys/pkg/mocks"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAction_Execute_DefaultsToContactOwner(t *testing.T) {
	tasks := &mocks.MockTaskStore{}
	contact := testutil.CreateTestContact(func(c *models.Contact) { c.OwnerID = "rep-9" })
	actx := testutil.ActionContext(contact)

	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
		return task.AssignedTo == "rep-9" &&
			task.ContactID == contact.ID &&
			task.Title == "Call Ada" &&
			task.Priority == "normal" &&
			task.DueAt.Equal(testutil.Now.Add(7*24*time.Hour))
	})).Return("task-1", nil)

	step := testutil.Step("follow_up", models.StepKindCreateTask, models.CreateTaskConfig{Title: "Call {{ .first_name }}"})

	outcome, err := NewAction(tasks).Execute(context.Background(), step, actx)
	require.NoError(t, err)

	require.Len(t, outcome.Entries, 1)
	assert.Equal(t, models.DataEntryTaskCreated, outcome.Entries[0].Kind)
	assert.Equal(t, "task-1", outcome.Entries[0].Data["task_id"])
	tasks.AssertExpectations(t)
}

func TestAction_Execute_ExplicitAssignee(t *testing.T) {
	tasks := &mocks.MockTaskStore{}
	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
		return task.AssignedTo == "manager" && task.Priority == "high"
	})).Return("task-2", nil)

	step := testutil.Step("follow_up", models.StepKindCreateTask, models.CreateTaskConfig{Title: "Escalate", AssignedTo: "manager", Priority: "high"})

	_, err := NewAction(tasks).Execute(context.Background(), step, testutil.ActionContext(testutil.CreateTestContact()))
	require.NoError(t, err)
	tasks.AssertExpectations(t)
}

func TestAction_Execute_StoreFailure(t *testing.T) {
	tasks := &mocks.MockTaskStore{}
	tasks.On("Create", mock.Anything, mock.Anything).Return("", errors.New("db down"))

	step := testutil.Step("follow_up", models.StepKindCreateTask, models.CreateTaskConfig{Title: "Call"})

	_, err := NewAction(tasks).Execute(context.Background(), step, testutil.ActionContext(testutil.CreateTestContact()))
	require.Error(t, err)
}

func TestDueAt(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	absolute := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	three := 3

	assert.Equal(t, now.Add(7*24*time.Hour), DueAt(models.CreateTaskConfig{}, now))
	assert.Equal(t, now.AddDate(0, 0, 3), DueAt(models.CreateTaskConfig{DueInDays: &three}, now))
	assert.Equal(t, absolute, DueAt(models.CreateTaskConfig{DueDate: &absolute, DueInDays: &three}, now))
}
