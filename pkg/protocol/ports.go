package protocol

import (
	"context"
	"errors"

	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
)

// ErrContactNotFound is returned by ContactStore.Get for unknown contacts.
var ErrContactNotFound = errors.New("contact not found")

// ErrTemplateNotFound is returned by TemplateStore.Get for unknown templates.
var ErrTemplateNotFound = errors.New("template not found")

type ContactStore interface {
	Get(ctx context.Context, contactID string) (*models.Contact, error)
	// Update applies field:value pairs. Fields are contact field names or
	// custom attribute keys.
	Update(ctx context.Context, contactID string, fields map[string]any) error
}

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) (string, error)
}

type DealStore interface {
	Create(ctx context.Context, deal *models.Deal) (string, error)
}

type TemplateStore interface {
	Get(ctx context.Context, templateID string) (*models.EmailTemplate, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// WebhookResponse is the transport-level result of a webhook call.
type WebhookResponse struct {
	StatusCode int
}

type WebhookClient interface {
	// Post sends body to url. Non-2xx responses are returned as errors.
	Post(ctx context.Context, url, method string, headers map[string]string, body []byte) (WebhookResponse, error)
}

// Observer receives engine lifecycle events. Notify must not block the engine
// for long; failures are logged by the caller and otherwise ignored.
type Observer interface {
	Notify(ctx context.Context, event events.Event) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event events.Event) error

func (f ObserverFunc) Notify(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}
