package notify

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const defaultFromName = "The Marketier"

var errNoRecipient = errors.New("notify: email has no recipient")

// EmailSender delivers one email. SendGrid, SES and the stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single-recipient email. Body is plain text and HTML is
// optional.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

func (m EmailMessage) recipient() mailbox {
	return mailbox{address: strings.TrimSpace(m.To), name: strings.TrimSpace(m.ToName)}
}

// htmlOrText is the HTML part, or the plain body when there is none.
func (m EmailMessage) htmlOrText() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Body
}

// mailbox is an address with an optional display name.
type mailbox struct {
	address string
	name    string
}

func senderMailbox(address, name string) mailbox {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultFromName
	}
	return mailbox{address: strings.TrimSpace(address), name: name}
}

// header renders the mailbox for an address header. Display names are
// quoted or encoded so commas and non-ASCII names survive.
func (b mailbox) header() string {
	if b.name == "" {
		return b.address
	}
	return (&mail.Address{Name: b.name, Address: b.address}).String()
}

func logDelivery(logger *logging.Logger, msg EmailMessage, err error, args ...any) {
	args = append(args, "to", msg.To, "subject", msg.Subject)
	if err != nil {
		logger.Error("email delivery failed", append(args, "error", err)...)
		return
	}
	logger.Info("email delivered", args...)
}

// StubEmailSender logs instead of sending. Used when email is disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger.With("email_provider", "stub")}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if msg.recipient().address == "" {
		return errNoRecipient
	}
	s.logger.Info("email disabled; not sending", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
