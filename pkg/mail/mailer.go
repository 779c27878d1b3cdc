// Package mail delivers transactional email through SendGrid or the application log.
package mail

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/pkg/config"
)

// Message is a rendered email ready to send.
type Message struct {
	To       []mail.Address
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Validate checks the message has a recipient and some content.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	for _, to := range m.To {
		if !strings.Contains(to.Address, "@") {
			return fmt.Errorf("invalid recipient %q", to.Address)
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("message has no subject")
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("message has no content")
	}
	return nil
}

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the mailer configured by cfg.Provider.
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
	switch cfg.Provider {
	case "", config.MailProviderLog:
		return NewLogMailer(from, logger), nil
	case config.MailProviderSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, from), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
