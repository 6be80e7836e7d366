package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/marketier-assistant/internal/booking"
	"github.com/wolfman30/marketier-assistant/internal/observability/metrics"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const (
	bookingStartPrompt = "Perfect! I'll help you book a strategy call. I just need a few details:\n\nYour Name:\nEmail Address:\nCompany Name:\nPhone (optional):\n\nPlease provide these details and I'll show you available times!"
	bookingRepickPrompt = "Please select one of the available times below:"
	bookingStalePrompt  = "That time is no longer available. Here are the times still open:"
	bookingFailedReply  = "I'm having trouble booking the appointment right now. Let me open our calendar so you can book directly."
	slotsFailedReply    = "I'm having trouble finding open times right now. Let me open our calendar so you can book directly."
)

// BookingObserver is notified after a booking is confirmed. Observer errors
// are logged and never change the reply.
type BookingObserver interface {
	BookingConfirmed(ctx context.Context, sessionID string, result booking.BookingResult) error
}

// BookingFlow drives the collect details, pick a time, confirm sequence. All
// state lives on the Session; the flow itself is shared by every session.
type BookingFlow struct {
	provider    booking.Provider
	policy      booking.SlotPolicy
	calendarURL string
	observers   []BookingObserver
	now         func() time.Time
	metrics     *metrics.ConversationMetrics
	logger      *logging.Logger
}

// BookingFlowOption customizes a BookingFlow.
type BookingFlowOption func(*BookingFlow)

// WithBookingObserver registers a post-confirmation hook.
func WithBookingObserver(o BookingObserver) BookingFlowOption {
	return func(f *BookingFlow) {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
}

// WithBookingClock overrides time.Now.
func WithBookingClock(now func() time.Time) BookingFlowOption {
	return func(f *BookingFlow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithBookingMetrics records booking outcomes.
func WithBookingMetrics(m *metrics.ConversationMetrics) BookingFlowOption {
	return func(f *BookingFlow) { f.metrics = m }
}

// NewBookingFlow creates the flow. A nil provider runs in demo mode: slots
// come from the policy and every booking succeeds.
func NewBookingFlow(provider booking.Provider, policy booking.SlotPolicy, calendarURL string, logger *logging.Logger, opts ...BookingFlowOption) *BookingFlow {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(calendarURL) == "" {
		calendarURL = DefaultCalendarURL
	}
	f := &BookingFlow{
		policy:      policy,
		calendarURL: calendarURL,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	if provider == nil {
		provider = booking.NewDemoProvider(policy, f.now)
	}
	f.provider = provider
	return f
}

// ProviderName returns the scheduling backend in use.
func (f *BookingFlow) ProviderName() string { return f.provider.Name() }

// Start moves an idle session into collecting and returns the details prompt.
func (f *BookingFlow) Start(s *Session) Message {
	s.resetFlow()
	s.FlowState = FlowCollecting
	return newAssistantMessage(bookingStartPrompt, KindText, SourceBooking, f.now())
}

// Handle routes a turn for a session whose flow is active.
func (f *BookingFlow) Handle(ctx context.Context, s *Session, text string) Message {
	switch s.FlowState {
	case FlowCollecting:
		return f.collect(ctx, s, text)
	case FlowSelectingTime:
		return f.selectTime(ctx, s, text)
	case FlowConfirming:
		// A turn arriving mid-confirmation means the previous one never
		// finished; offer the slots that are still open.
		slots, err := f.currentSlots(ctx, s.Slots, f.now())
		if err != nil {
			return f.degrade(s, slotsFailedReply, "slots_unavailable", err)
		}
		s.Slots = slots
		s.FlowState = FlowSelectingTime
		return f.presentSlots(bookingRepickPrompt, slots)
	default:
		return f.Start(s)
	}
}

// Abandon drops any in-progress flow, e.g. when the session ends.
func (f *BookingFlow) Abandon(s *Session) {
	if s.BookingActive() {
		f.metrics.ObserveBooking(f.provider.Name(), "abandoned")
	}
	s.resetFlow()
}

func (f *BookingFlow) collect(ctx context.Context, s *Session, text string) Message {
	contact, err := ExtractContact(text)
	if err != nil {
		f.logger.Debug("contact extraction incomplete", "session_id", s.ID, "error", err)
		return newAssistantMessage(repromptFor(contact.MissingFields()), KindText, SourceBooking, f.now())
	}

	slots, err := f.availableSlots(ctx, f.now())
	if err != nil {
		return f.degrade(s, slotsFailedReply, "slots_unavailable", err)
	}

	s.Contact = contact
	s.Slots = slots
	s.FlowState = FlowSelectingTime

	company := contact.Company
	if company == "" {
		company = "Not provided"
	}
	intro := fmt.Sprintf("Great! I have your details:\n\n%s\n%s\n%s\n\nHere are available times for your strategy call:", contact.Name, contact.Email, company)
	return f.presentSlots(intro, slots)
}

func (f *BookingFlow) selectTime(ctx context.Context, s *Session, text string) Message {
	slot, ok := matchSlot(s.Slots, text)
	if !ok {
		return f.presentSlots(bookingRepickPrompt, s.Slots)
	}
	if now := f.now(); !f.policy.Allows(slot.StartTime, now) {
		slots, err := f.currentSlots(ctx, s.Slots, now)
		if err != nil {
			return f.degrade(s, slotsFailedReply, "slots_unavailable", err)
		}
		f.logger.Info("offered slot went stale", "session_id", s.ID, "slot_id", slot.ID, "remaining", len(slots))
		s.Slots = slots
		return f.presentSlots(bookingStalePrompt, slots)
	}
	s.FlowState = FlowConfirming
	return f.confirm(ctx, s, slot)
}

func (f *BookingFlow) confirm(ctx context.Context, s *Session, slot booking.TimeSlot) Message {
	result, err := f.provider.CreateBooking(ctx, slot, s.Contact)
	if err == nil && result == nil {
		err = errors.New("provider returned no booking")
	}
	if err != nil {
		return f.degrade(s, bookingFailedReply, "failed", fmt.Errorf("%w: create booking: %w", ErrBookingProviderUnavailable, err))
	}

	if result.ConfirmedAt.IsZero() {
		result.ConfirmedAt = f.now().UTC()
	}
	confirmed := *result
	s.LastBooking = &confirmed
	s.resetFlow()
	f.metrics.ObserveBooking(f.provider.Name(), "confirmed")
	f.logger.Info("booking confirmed", "session_id", s.ID, "provider", f.provider.Name(), "slot_id", slot.ID, "confirmation_id", confirmed.ConfirmationID)

	for _, o := range f.observers {
		if err := o.BookingConfirmed(ctx, s.ID, confirmed); err != nil {
			f.logger.Warn("booking observer failed", "session_id", s.ID, "error", err)
		}
	}

	text := fmt.Sprintf("Appointment Confirmed!\n\n%s\n%s\n%s\n\nYou'll receive a confirmation email shortly. Looking forward to our strategy call!",
		slot.DisplayLabel, confirmed.Contact.Name, confirmed.Contact.Email)
	msg := newAssistantMessage(text, KindBookingConfirmed, SourceBooking, f.now())
	msg.Booking = &confirmed
	return msg
}

// availableSlots asks the provider for the booking window starting at now and
// keeps only slots the policy allows.
func (f *BookingFlow) availableSlots(ctx context.Context, now time.Time) ([]booking.TimeSlot, error) {
	start, end := f.policy.Window(now)
	slots, err := f.provider.ListAvailableSlots(ctx, start, end)
	if err == nil {
		slots = f.policy.Filter(slots, now)
		if len(slots) == 0 {
			err = errors.New("no open slots in window")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list slots: %w", ErrBookingProviderUnavailable, err)
	}
	return slots, nil
}

// currentSlots drops offered slots that are no longer bookable at now. When
// none survive, a fresh list is fetched.
func (f *BookingFlow) currentSlots(ctx context.Context, offered []booking.TimeSlot, now time.Time) ([]booking.TimeSlot, error) {
	if slots := f.policy.Filter(offered, now); len(slots) > 0 {
		return slots, nil
	}
	return f.availableSlots(ctx, now)
}

func (f *BookingFlow) degrade(s *Session, reply, outcome string, err error) Message {
	f.metrics.ObserveBooking(f.provider.Name(), outcome)
	f.logger.Warn("booking flow degraded to calendar link", "session_id", s.ID, "provider", f.provider.Name(), "error", err)
	s.resetFlow()
	msg := newAssistantMessage(reply, KindCalendarLink, SourceBooking, f.now())
	msg.CalendarURL = f.calendarURL
	return msg
}

func (f *BookingFlow) presentSlots(text string, slots []booking.TimeSlot) Message {
	msg := newAssistantMessage(text, KindTimeSelection, SourceBooking, f.now())
	msg.Slots = cloneSlots(slots)
	return msg
}

// matchSlot accepts a slot ID, a 1-based position or the exact label.
func matchSlot(slots []booking.TimeSlot, text string) (booking.TimeSlot, bool) {
	text = strings.TrimSpace(text)
	for _, slot := range slots {
		if slot.ID == text {
			return slot, true
		}
	}
	if n, err := strconv.Atoi(strings.TrimSuffix(text, ".")); err == nil && n >= 1 && n <= len(slots) {
		return slots[n-1], true
	}
	for _, slot := range slots {
		if strings.EqualFold(slot.DisplayLabel, text) {
			return slot, true
		}
	}
	return booking.TimeSlot{}, false
}

func repromptFor(missing []string) string {
	labels := make([]string, 0, len(missing))
	for _, field := range missing {
		switch field {
		case "name":
			labels = append(labels, "your name")
		case "email":
			labels = append(labels, "your email address")
		}
	}
	if len(labels) == 0 {
		labels = []string{"your name", "your email address"}
	}
	return fmt.Sprintf("I need at least your name and email address to book the call. I'm still missing %s. Please provide:\n\nYour Name:\nEmail Address:\nCompany Name:", strings.Join(labels, " and "))
}
