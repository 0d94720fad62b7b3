// Package actions assembles the built-in step actions.
package actions

import (
	"github.com/dukex/journeys/pkg/actions/condition"
	"github.com/dukex/journeys/pkg/actions/contact"
	"github.com/dukex/journeys/pkg/actions/deal"
	"github.com/dukex/journeys/pkg/actions/email"
	"github.com/dukex/journeys/pkg/actions/flow"
	"github.com/dukex/journeys/pkg/actions/sms"
	"github.com/dukex/journeys/pkg/actions/task"
	"github.com/dukex/journeys/pkg/actions/webhook"
	"github.com/dukex/journeys/pkg/protocol"
)

// Ports are the external systems the built-in actions act upon.
type Ports struct {
	Contacts  protocol.ContactStore
	Tasks     protocol.TaskStore
	Deals     protocol.DealStore
	Templates protocol.TemplateStore
	Mailer    protocol.Mailer
	SMS       protocol.SMSSender
	Webhooks  protocol.WebhookClient
}

// Builtins returns one action per built-in step kind. Actions whose port is
// nil are left out, so their kind is treated as unknown.
func Builtins(ports Ports) []protocol.Action {
	builtins := []protocol.Action{
		flow.NewWaitAction(),
		flow.NewEndAction(),
		condition.NewAction(),
	}

	if ports.Templates != nil && ports.Mailer != nil {
		builtins = append(builtins, email.NewAction(ports.Templates, ports.Mailer))
	}

	if ports.SMS != nil {
		builtins = append(builtins, sms.NewAction(ports.SMS))
	}

	if ports.Tasks != nil {
		builtins = append(builtins, task.NewAction(ports.Tasks))
	}

	if ports.Deals != nil {
		builtins = append(builtins, deal.NewAction(ports.Deals))
	}

	if ports.Contacts != nil {
		builtins = append(builtins,
			contact.NewUpdateAction(ports.Contacts),
			contact.NewAddTagAction(ports.Contacts),
			contact.NewRemoveTagAction(ports.Contacts),
			contact.NewLeadScoreAction(ports.Contacts),
		)
	}

	if ports.Webhooks != nil {
		builtins = append(builtins, webhook.NewAction(ports.Webhooks))
	}

	return builtins
}
