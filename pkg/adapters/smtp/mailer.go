// Package smtp delivers journey emails through an SMTP relay using gomail.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/protocol"
	"gopkg.in/gomail.v2"
)

var ErrMissingSender = errors.New("smtp sender address is required")

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	// ContentType of message bodies, text/html unless set.
	ContentType string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	config Config
	dialer dialer
	logger *slog.Logger
}

var _ protocol.Mailer = (*Mailer)(nil)

func NewMailer(config Config, logger *slog.Logger) (*Mailer, error) {
	if config.FromEmail == "" {
		return nil, ErrMissingSender
	}

	if config.ContentType == "" {
		config.ContentType = "text/html"
	}

	return &Mailer{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		logger: logger.With(slog.String("module", "smtp")),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.config.FromEmail, m.config.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody(m.config.ContentType, body)

	err = m.dialer.DialAndSend(msg)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to send email", slog.String("to", to), slog.Any("error", err))

		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	m.logger.DebugContext(ctx, "Email sent", slog.String("to", to))

	return nil
}
