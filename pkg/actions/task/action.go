// Package task provides the create_task step action.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/template"
)

// DefaultDueIn is used when the step sets neither due_date nor due_in_days.
const DefaultDueIn = 7 * 24 * time.Hour

const defaultPriority = "normal"

type Action struct {
	tasks protocol.TaskStore
}

func NewAction(tasks protocol.TaskStore) *Action {
	return &Action{tasks: tasks}
}

func (*Action) Kind() models.StepKind {
	return models.StepKindCreateTask
}

// Execute creates a task assigned to config.assigned_to, falling back to the
// contact owner.
func (a *Action) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.CreateTaskConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	title, err := template.RenderString(config.Title, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render title: %w", err)
	}

	description, err := template.RenderString(config.Description, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render description: %w", err)
	}

	task := &models.Task{
		ContactID:   actx.Execution.ContactID,
		AssignedTo:  assignee(config, actx.Contact),
		Title:       title,
		Description: description,
		Priority:    config.Priority,
		DueAt:       DueAt(config, actx.Now),
	}

	if task.Priority == "" {
		task.Priority = defaultPriority
	}

	taskID, err := a.tasks.Create(ctx, task)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("create task: %w", err)
	}

	actx.Logger.InfoContext(ctx, "Task created",
		slog.String("task_id", taskID),
		slog.String("assigned_to", task.AssignedTo),
	)

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntryTaskCreated, step, map[string]any{
				"task_id":     taskID,
				"title":       task.Title,
				"assigned_to": task.AssignedTo,
				"due_at":      task.DueAt,
			}),
		},
	}, nil
}

// DueAt resolves the task due time relative to now.
func DueAt(config models.CreateTaskConfig, now time.Time) time.Time {
	switch {
	case config.DueDate != nil:
		return config.DueDate.UTC()
	case config.DueInDays != nil:
		return now.AddDate(0, 0, *config.DueInDays)
	default:
		return now.Add(DefaultDueIn)
	}
}

func assignee(config models.CreateTaskConfig, contact *models.Contact) string {
	if config.AssignedTo != "" {
		return config.AssignedTo
	}

	if contact != nil {
		return contact.OwnerID
	}

	return ""
}
