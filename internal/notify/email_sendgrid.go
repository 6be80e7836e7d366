package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// SendGridConfig configures SendGridSender. Without an APIKey no sender is
// built.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
	from   mailbox
	logger *logging.Logger
}

func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(key),
		from:   senderMailbox(cfg.FromEmail, cfg.FromName),
		logger: logger.With("email_provider", "sendgrid"),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: sendgrid client not configured")
	}
	to := msg.recipient()
	if to.address == "" {
		return errNoRecipient
	}

	email := mail.NewSingleEmail(
		mail.NewEmail(s.from.name, s.from.address),
		msg.Subject,
		mail.NewEmail(to.name, to.address),
		msg.Body,
		msg.htmlOrText(),
	)
	resp, err := s.client.SendWithContext(ctx, email)
	switch {
	case err != nil:
		err = fmt.Errorf("notify: sendgrid: %w", err)
	case resp.StatusCode >= 400:
		err = fmt.Errorf("notify: sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	logDelivery(s.logger, msg, err)
	return err
}

var _ EmailSender = (*SendGridSender)(nil)
