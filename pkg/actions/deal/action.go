// Package deal provides the create_deal step action.
package deal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/template"
)

type Action struct {
	deals protocol.DealStore
}

func NewAction(deals protocol.DealStore) *Action {
	return &Action{deals: deals}
}

func (*Action) Kind() models.StepKind {
	return models.StepKindCreateDeal
}

func (a *Action) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.CreateDealConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	title, err := template.RenderString(config.Title, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render title: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = defaultTitle(actx.Contact)
	}

	deal := &models.Deal{
		ContactID: actx.Execution.ContactID,
		Title:     title,
		Value:     config.Value,
		Stage:     config.Stage,
	}

	if actx.Contact != nil {
		deal.OwnerID = actx.Contact.OwnerID
	}

	dealID, err := a.deals.Create(ctx, deal)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("create deal: %w", err)
	}

	actx.Logger.InfoContext(ctx, "Deal created", slog.String("deal_id", dealID), slog.String("stage", deal.Stage))

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntryDealCreated, step, map[string]any{
				"deal_id": dealID,
				"title":   deal.Title,
				"value":   deal.Value,
				"stage":   deal.Stage,
			}),
		},
	}, nil
}

func defaultTitle(contact *models.Contact) string {
	if contact == nil {
		return "Journey deal"
	}

	name := strings.TrimSpace(contact.FirstName + " " + contact.LastName)

	switch {
	case contact.CompanyName != "":
		return "Deal - " + contact.CompanyName
	case name != "":
		return "Deal - " + name
	default:
		return "Deal - " + contact.Email
	}
}
