package cmd

import (
	"time"

	"github.com/dukex/journeys/pkg/adapters/sms"
	"github.com/dukex/journeys/pkg/adapters/smtp"
	"github.com/dukex/journeys/pkg/adapters/webhook"
	"github.com/dukex/journeys/pkg/engine"
	cli "github.com/urfave/cli/v3"
)

// RuntimeFlags are the flags every binary accepts to build a Runtime.
func RuntimeFlags() []cli.Flag {
	defaults := engine.DefaultConfig()

	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Journey and execution store (file://path or postgres://...)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL guarding claims of a file store shared by several processes",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.StringFlag{
			Name:     "crm-database-url",
			Usage:    "Contacts, tasks, deals and templates database (postgres://... or a SQLite path)",
			Required: true,
			Sources:  cli.EnvVars("CRM_DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Lifecycle event bus (kafka, gochannel, or empty for none)",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "plugins-path",
			Usage:   "Path to the directory containing action plugins",
			Sources: cli.EnvVars("PLUGINS_PATH"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Sources: cli.EnvVars("SMTP_HOST"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Sources: cli.EnvVars("SMTP_PORT"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Sources: cli.EnvVars("SMTP_USERNAME"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Sources: cli.EnvVars("SMTP_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-email",
			Sources: cli.EnvVars("SMTP_FROM_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Sources: cli.EnvVars("SMTP_FROM_NAME"),
		},
		&cli.StringFlag{
			Name:    "sms-endpoint",
			Usage:   "HTTP endpoint of the SMS gateway",
			Sources: cli.EnvVars("SMS_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    "sms-api-key",
			Sources: cli.EnvVars("SMS_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "sms-from",
			Sources: cli.EnvVars("SMS_FROM"),
		},
		&cli.IntFlag{
			Name:    "webhook-attempts",
			Value:   3,
			Sources: cli.EnvVars("WEBHOOK_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:    "webhook-retry-delay",
			Value:   2 * time.Second,
			Sources: cli.EnvVars("WEBHOOK_RETRY_DELAY"),
		},
		&cli.DurationFlag{
			Name:    "webhook-timeout",
			Value:   30 * time.Second,
			Sources: cli.EnvVars("WEBHOOK_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Lease owner id (auto-generated if not provided)",
			Sources: cli.EnvVars("WORKER_ID"),
		},
		&cli.DurationFlag{
			Name:    "lease-duration",
			Value:   defaults.LeaseDuration,
			Sources: cli.EnvVars("LEASE_DURATION"),
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Value:   defaults.BatchSize,
			Usage:   "Executions claimed per poll, 0 for all",
			Sources: cli.EnvVars("BATCH_SIZE"),
		},
		&cli.IntFlag{
			Name:    "max-steps-per-tick",
			Value:   defaults.MaxStepsPerTick,
			Sources: cli.EnvVars("MAX_STEPS_PER_TICK"),
		},
		&cli.StringFlag{
			Name:    "definition-mode",
			Usage:   "live or snapshot",
			Value:   string(defaults.DefinitionMode),
			Sources: cli.EnvVars("DEFINITION_MODE"),
		},
		&cli.BoolFlag{
			Name:    "otel-enabled",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

// RuntimeConfigFrom reads RuntimeFlags from command.
func RuntimeConfigFrom(command *cli.Command, serviceName string) RuntimeConfig {
	return RuntimeConfig{
		ServiceName:  serviceName,
		DatabaseURL:  command.String("database-url"),
		RedisURL:     command.String("redis-url"),
		EventBus:     command.String("event-bus"),
		KafkaBrokers: command.String("kafka-brokers"),
		PluginsPath:  command.String("plugins-path"),
		OtelEnabled:  command.Bool("otel-enabled"),
		Ports: PortsConfig{
			CRMDatabaseURL: command.String("crm-database-url"),
			SMTP: smtp.Config{
				Host:      command.String("smtp-host"),
				Port:      int(command.Int("smtp-port")),
				Username:  command.String("smtp-username"),
				Password:  command.String("smtp-password"),
				FromEmail: command.String("smtp-from-email"),
				FromName:  command.String("smtp-from-name"),
			},
			SMS: sms.Config{
				Endpoint: command.String("sms-endpoint"),
				APIKey:   command.String("sms-api-key"),
				From:     command.String("sms-from"),
			},
			WebhookRetry: webhook.RetryConfig{
				Attempts: int(command.Int("webhook-attempts")),
				Delay:    command.Duration("webhook-retry-delay"),
			},
			WebhookTimeout: command.Duration("webhook-timeout"),
		},
		Engine: engine.Config{
			WorkerID:        command.String("worker-id"),
			LeaseDuration:   command.Duration("lease-duration"),
			BatchSize:       int(command.Int("batch-size")),
			MaxStepsPerTick: int(command.Int("max-steps-per-tick")),
			DefinitionMode:  engine.DefinitionMode(command.String("definition-mode")),
		},
	}
}
