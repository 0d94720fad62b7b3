// Package contact provides the step actions that mutate the enrolled contact:
// update_contact, add_tag, remove_tag and update_lead_score.
package contact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/template"
)

// UpdateAction applies the configured field:value pairs to the contact.
// String values may reference the execution context.
type UpdateAction struct {
	contacts protocol.ContactStore
}

func NewUpdateAction(contacts protocol.ContactStore) *UpdateAction {
	return &UpdateAction{contacts: contacts}
}

func (*UpdateAction) Kind() models.StepKind {
	return models.StepKindUpdateContact
}

func (a *UpdateAction) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.UpdateContactConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	rendered, err := template.RenderValue(config.Fields, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render fields: %w", err)
	}

	fields, _ := rendered.(map[string]any)

	err = a.contacts.Update(ctx, actx.Execution.ContactID, fields)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("update contact: %w", err)
	}

	actx.Logger.InfoContext(ctx, "Contact updated", slog.Int("fields", len(fields)))

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntryContactUpdated, step, map[string]any{"fields": fields}),
		},
	}, nil
}
