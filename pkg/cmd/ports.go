package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/journeys/pkg/actions"
	"github.com/dukex/journeys/pkg/adapters/crm"
	"github.com/dukex/journeys/pkg/adapters/sms"
	"github.com/dukex/journeys/pkg/adapters/smtp"
	"github.com/dukex/journeys/pkg/adapters/webhook"
)

// PortsConfig selects the external systems actions talk to. Ports left
// unconfigured stay nil and their step kinds run as no-ops.
type PortsConfig struct {
	CRMDatabaseURL string
	SMTP           smtp.Config
	SMS            sms.Config
	WebhookRetry   webhook.RetryConfig
	WebhookTimeout time.Duration
}

func NewPorts(ctx context.Context, logger *slog.Logger, config PortsConfig) (actions.Ports, error) {
	var ports actions.Ports

	webhookOpts := []webhook.Option{webhook.WithRetry(config.WebhookRetry)}
	if config.WebhookTimeout > 0 {
		webhookOpts = append(webhookOpts, webhook.WithTimeout(config.WebhookTimeout))
	}

	client := webhook.NewClient(logger, webhookOpts...)
	ports.Webhooks = client

	if config.CRMDatabaseURL != "" {
		db, err := crm.Open(config.CRMDatabaseURL, logger)
		if err != nil {
			return ports, err
		}

		err = crm.AutoMigrate(db.WithContext(ctx))
		if err != nil {
			return ports, fmt.Errorf("failed to migrate crm tables: %w", err)
		}

		ports.Contacts = crm.NewContactStore(db, logger)
		ports.Tasks = crm.NewTaskStore(db)
		ports.Deals = crm.NewDealStore(db)
		ports.Templates = crm.NewTemplateStore(db)
	}

	if config.SMTP.Host != "" {
		mailer, err := smtp.NewMailer(config.SMTP, logger)
		if err != nil {
			return ports, err
		}

		ports.Mailer = mailer
	}

	if config.SMS.Endpoint != "" {
		gateway, err := sms.NewGateway(config.SMS, client, logger)
		if err != nil {
			return ports, err
		}

		ports.SMS = gateway
	}

	return ports, nil
}
