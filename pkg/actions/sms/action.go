// Package sms provides the send_sms step action.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/template"
)

// ErrNoPhone is returned when the contact has no phone number.
var ErrNoPhone = errors.New("contact has no phone number")

type Action struct {
	sender protocol.SMSSender
}

func NewAction(sender protocol.SMSSender) *Action {
	return &Action{sender: sender}
}

func (*Action) Kind() models.StepKind {
	return models.StepKindSendSMS
}

// Execute sends the rendered message to the contact's phone. Transport
// failures fail the step.
func (a *Action) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.SendSMSConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	if actx.Contact == nil || actx.Contact.Phone == "" {
		return protocol.Outcome{}, ErrNoPhone
	}

	message, err := template.RenderString(config.Message, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render message: %w", err)
	}

	err = a.sender.Send(ctx, actx.Contact.Phone, message)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("send sms: %w", err)
	}

	actx.Logger.InfoContext(ctx, "SMS sent", slog.String("to", actx.Contact.Phone))

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntrySMSSent, step, map[string]any{
				"to":      actx.Contact.Phone,
				"message": message,
			}),
		},
	}, nil
}
