// Package sms sends text messages through an HTTP SMS gateway.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukex/journeys/pkg/protocol"
)

var ErrMissingEndpoint = errors.New("sms gateway endpoint is required")

type Config struct {
	Endpoint string
	APIKey   string
	// From is the sender number or alphanumeric id.
	From string
}

type payload struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// Gateway posts messages to Config.Endpoint as JSON through an HTTP client.
type Gateway struct {
	config Config
	client protocol.WebhookClient
	logger *slog.Logger
}

var _ protocol.SMSSender = (*Gateway)(nil)

func NewGateway(config Config, client protocol.WebhookClient, logger *slog.Logger) (*Gateway, error) {
	if config.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	return &Gateway{
		config: config,
		client: client,
		logger: logger.With(slog.String("module", "sms_gateway")),
	}, nil
}

func (g *Gateway) Send(ctx context.Context, to, message string) error {
	body, err := json.Marshal(payload{From: g.config.From, To: to, Message: message})
	if err != nil {
		return err
	}

	headers := map[string]string{}
	if g.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + g.config.APIKey
	}

	_, err = g.client.Post(ctx, g.config.Endpoint, http.MethodPost, headers, body)
	if err != nil {
		return fmt.Errorf("failed to send sms to %s: %w", to, err)
	}

	g.logger.DebugContext(ctx, "SMS sent", slog.String("to", to))

	return nil
}
