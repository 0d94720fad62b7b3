// Package email provides the send_email step action.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/template"
)

// ErrNoRecipient is returned when the contact has no email address.
var ErrNoRecipient = errors.New("contact has no email address")

// Action renders a stored template with the contact's fields and mails it.
type Action struct {
	templates protocol.TemplateStore
	mailer    protocol.Mailer
}

func NewAction(templates protocol.TemplateStore, mailer protocol.Mailer) *Action {
	return &Action{templates: templates, mailer: mailer}
}

func (*Action) Kind() models.StepKind {
	return models.StepKindSendEmail
}

func (a *Action) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.SendEmailConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	if actx.Contact == nil || actx.Contact.Email == "" {
		return protocol.Outcome{}, ErrNoRecipient
	}

	tpl, err := a.templates.Get(ctx, config.TemplateID)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("load template %s: %w", config.TemplateID, err)
	}

	subject, err := template.RenderString(tpl.Subject, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render subject: %w", err)
	}

	body, err := template.RenderString(tpl.Body, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render body: %w", err)
	}

	err = a.mailer.Send(ctx, actx.Contact.Email, subject, body)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("send email: %w", err)
	}

	actx.Logger.InfoContext(ctx, "Email sent",
		slog.String("template_id", config.TemplateID),
		slog.String("to", actx.Contact.Email),
	)

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntryEmailSent, step, map[string]any{
				"template_id": config.TemplateID,
				"to":          actx.Contact.Email,
				"subject":     subject,
			}),
		},
	}, nil
}
