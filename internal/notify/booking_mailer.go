package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const bookingSubject = "Your strategy call with The Marketier is confirmed"

// BookingMailer emails the invitee after a booking is confirmed. When
// teamEmail is set, the team gets a copy with the contact details.
type BookingMailer struct {
	sender      EmailSender
	teamEmail   string
	calendarURL string
	logger      *logging.Logger
}

func NewBookingMailer(sender EmailSender, teamEmail, calendarURL string, logger *logging.Logger) *BookingMailer {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	return &BookingMailer{
		sender:      sender,
		teamEmail:   strings.TrimSpace(teamEmail),
		calendarURL: strings.TrimSpace(calendarURL),
		logger:      logger,
	}
}

// BookingConfirmed sends the confirmation mail(s). Both sends are attempted;
// the joined error is returned.
func (m *BookingMailer) BookingConfirmed(ctx context.Context, sessionID string, result booking.BookingResult) error {
	var errs []error
	if to := strings.TrimSpace(result.Contact.Email); to != "" {
		if err := m.sender.Send(ctx, m.inviteeMessage(result)); err != nil {
			errs = append(errs, fmt.Errorf("notify: invitee confirmation: %w", err))
		}
	} else {
		m.logger.Warn("booking has no invitee email; skipping confirmation", "session_id", sessionID)
	}

	if m.teamEmail != "" {
		if err := m.sender.Send(ctx, m.teamMessage(sessionID, result)); err != nil {
			errs = append(errs, fmt.Errorf("notify: team notification: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (m *BookingMailer) inviteeMessage(result booking.BookingResult) EmailMessage {
	c := result.Contact
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", firstName(c.Name))
	fmt.Fprintf(&body, "Your strategy call is booked for %s.\n\n", result.Slot.DisplayLabel)
	body.WriteString("We'll talk through your goals and show you how our AI-powered approach can grow your business.\n")
	if m.calendarURL != "" {
		fmt.Fprintf(&body, "\nNeed a different time? Pick a new one at %s\n", m.calendarURL)
	}
	if result.ConfirmationID != "" {
		fmt.Fprintf(&body, "\nConfirmation: %s\n", result.ConfirmationID)
	}
	body.WriteString("\nLooking forward to speaking with you!\nThe Marketier Team\n")

	text := body.String()
	return EmailMessage{
		To:      strings.TrimSpace(c.Email),
		ToName:  c.Name,
		Subject: bookingSubject,
		Body:    text,
		HTML:    "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>",
	}
}

func (m *BookingMailer) teamMessage(sessionID string, result booking.BookingResult) EmailMessage {
	c := result.Contact
	lines := []string{
		"New strategy call booked from the website chat.",
		"",
		"When: " + result.Slot.DisplayLabel,
		"Name: " + c.Name,
		"Email: " + c.Email,
		"Company: " + c.Company,
		"Phone: " + c.Phone,
		"Provider: " + result.Provider,
		"Confirmation: " + result.ConfirmationID,
		"Chat session: " + sessionID,
	}
	return EmailMessage{
		To:      m.teamEmail,
		Subject: fmt.Sprintf("New booking: %s (%s)", c.Name, result.Slot.DisplayLabel),
		Body:    strings.Join(lines, "\n") + "\n",
	}
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
