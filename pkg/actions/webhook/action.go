// Package webhook provides the webhook step action.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/template"
)

type Action struct {
	client protocol.WebhookClient
}

func NewAction(client protocol.WebhookClient) *Action {
	return &Action{client: client}
}

func (*Action) Kind() models.StepKind {
	return models.StepKindWebhook
}

// Execute calls config.url. Without a configured payload the request body
// describes the execution and the contact. Transport errors and non-2xx
// responses fail the step; the response body is not inspected.
func (a *Action) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.WebhookConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	method := config.Method
	if method == "" {
		method = http.MethodPost
	}

	url, err := template.RenderString(config.URL, actx.Values)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("render url: %w", err)
	}

	err = models.ValidateHTTPURL(url)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("webhook url: %w", err)
	}

	body, err := a.buildBody(step, config, actx)
	if err != nil {
		return protocol.Outcome{}, err
	}

	headers := make(map[string]string, len(config.Headers))
	for key, value := range config.Headers {
		headers[key], err = template.RenderString(value, actx.Values)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("render header %s: %w", key, err)
		}
	}

	resp, err := a.client.Post(ctx, url, method, headers, body)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("webhook %s %s: %w", method, url, err)
	}

	actx.Logger.InfoContext(ctx, "Webhook called",
		slog.String("url", url),
		slog.String("method", method),
		slog.Int("status_code", resp.StatusCode),
	)

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntryWebhookCalled, step, map[string]any{
				"url":         url,
				"method":      method,
				"status_code": resp.StatusCode,
			}),
		},
	}, nil
}

func (a *Action) buildBody(step *models.Step, config models.WebhookConfig, actx *protocol.ActionContext) ([]byte, error) {
	var payload any

	if len(config.Payload) > 0 {
		rendered, err := template.RenderValue(config.Payload, actx.Values)
		if err != nil {
			return nil, fmt.Errorf("render payload: %w", err)
		}

		payload = rendered
	} else {
		payload = map[string]any{
			"journey_id":   actx.Execution.JourneyID,
			"execution_id": actx.Execution.ID,
			"contact_id":   actx.Execution.ContactID,
			"step_id":      step.ID,
			"contact":      actx.Contact,
			"sent_at":      actx.Now,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return body, nil
}
