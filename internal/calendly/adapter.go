package calendly

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// Adapter implements booking.Provider on top of a Calendly event type.
type Adapter struct {
	client    *Client
	eventType string
	policy    booking.SlotPolicy
	now       func() time.Time
	logger    *logging.Logger
}

// NewAdapter creates a Calendly booking provider. Availability returned by
// Calendly is held to the same slot policy as generated slots.
func NewAdapter(client *Client, eventType string, policy booking.SlotPolicy, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Adapter{
		client:    client,
		eventType: strings.TrimSpace(eventType),
		policy:    policy,
		now:       time.Now,
		logger:    logger,
	}
}

// Name returns the booking provider identifier.
func (a *Adapter) Name() string { return "calendly" }

// ListAvailableSlots satisfies booking.Provider.
func (a *Adapter) ListAvailableSlots(ctx context.Context, start, end time.Time) ([]booking.TimeSlot, error) {
	if a.client == nil {
		return nil, errors.New("calendly: client is required")
	}
	times, err := a.client.AvailableTimes(ctx, a.eventType, start, end)
	if err != nil {
		return nil, err
	}

	slots := make([]booking.TimeSlot, 0, len(times))
	for _, t := range times {
		if t.Status != "" && t.Status != "available" {
			continue
		}
		slots = append(slots, booking.NewTimeSlot(t.StartTime, a.policy.Location))
	}
	out := a.policy.Filter(slots, a.now())
	a.logger.Debug("calendly availability", "returned", len(times), "usable", len(out))
	return out, nil
}

// CreateBooking satisfies booking.Provider.
func (a *Adapter) CreateBooking(ctx context.Context, slot booking.TimeSlot, contact booking.Contact) (*booking.BookingResult, error) {
	if a.client == nil {
		return nil, errors.New("calendly: client is required")
	}
	if missing := contact.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("calendly: contact missing %s", strings.Join(missing, ", "))
	}

	req := InviteeRequest{
		EventType: a.eventType,
		StartTime: slot.StartTime.UTC(),
		Invitee: Invitee{
			Name:     contact.Name,
			Email:    contact.Email,
			Timezone: a.policy.Location.String(),
		},
	}
	if contact.Company != "" {
		req.QuestionsAndAnswers = append(req.QuestionsAndAnswers, QuestionAnswer{Question: "Company", Answer: contact.Company, Position: len(req.QuestionsAndAnswers)})
	}
	if contact.Phone != "" {
		req.QuestionsAndAnswers = append(req.QuestionsAndAnswers, QuestionAnswer{Question: "Phone", Answer: contact.Phone, Position: len(req.QuestionsAndAnswers)})
	}

	resource, err := a.client.CreateInvitee(ctx, req)
	if err != nil {
		return nil, err
	}

	confirmedAt := resource.CreatedAt
	if confirmedAt.IsZero() {
		confirmedAt = a.now().UTC()
	}
	return &booking.BookingResult{
		Contact:        contact,
		Slot:           slot,
		ConfirmedAt:    confirmedAt,
		ConfirmationID: confirmationID(resource.URI),
		Provider:       a.Name(),
	}, nil
}

func confirmationID(uri string) string {
	uri = strings.TrimRight(strings.TrimSpace(uri), "/")
	if uri == "" {
		return ""
	}
	return path.Base(uri)
}
