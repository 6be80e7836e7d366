package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/marketier-assistant/internal/booking"
)

// Author identifies who wrote a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// MessageKind tells the widget how to render an assistant message.
type MessageKind string

const (
	KindText             MessageKind = "text"
	KindTimeSelection    MessageKind = "time-selection"
	KindScheduleOffer    MessageKind = "schedule-offer"
	KindBookingConfirmed MessageKind = "booking-confirmed"
	KindCalendarLink     MessageKind = "calendar-link"
)

// MessageSource records which path produced an assistant message.
type MessageSource string

const (
	SourceCompletion MessageSource = "completion"
	SourceFallback   MessageSource = "fallback"
	SourceBooking    MessageSource = "booking"
	SourceGreeting   MessageSource = "greeting"
)

// FlowState is the booking flow position of a session.
type FlowState string

const (
	FlowIdle          FlowState = "idle"
	FlowCollecting    FlowState = "collecting"
	FlowSelectingTime FlowState = "selecting-time"
	FlowConfirming    FlowState = "confirming"
)

// Message is one entry of the transcript. Messages are never edited after
// they are appended.
type Message struct {
	ID          string                 `json:"id"`
	Author      Author                 `json:"author"`
	Text        string                 `json:"text"`
	CreatedAt   time.Time              `json:"created_at"`
	Kind        MessageKind            `json:"kind"`
	Source      MessageSource          `json:"source,omitempty"`
	Slots       []booking.TimeSlot     `json:"slots,omitempty"`
	CalendarURL string                 `json:"calendar_url,omitempty"`
	Booking     *booking.BookingResult `json:"booking,omitempty"`
}

// Session is the whole state of one live conversation. It is a plain value so
// it can be stored, copied and inspected between turns.
type Session struct {
	ID          string                 `json:"id"`
	Messages    []Message              `json:"messages"`
	FlowState   FlowState              `json:"flow_state"`
	Contact     booking.Contact        `json:"contact"`
	Slots       []booking.TimeSlot     `json:"slots,omitempty"`
	LastBooking *booking.BookingResult `json:"last_booking,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewSession returns an empty idle session.
func NewSession(now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:        uuid.NewString(),
		Messages:  []Message{},
		FlowState: FlowIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BookingActive reports whether the booking flow owns the next turn.
func (s *Session) BookingActive() bool {
	return s.FlowState != "" && s.FlowState != FlowIdle
}

// Last returns the most recent message, if any.
func (s *Session) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	for i, msg := range s.Messages {
		msg.Slots = cloneSlots(msg.Slots)
		if msg.Booking != nil {
			b := *msg.Booking
			msg.Booking = &b
		}
		out.Messages[i] = msg
	}
	out.Slots = cloneSlots(s.Slots)
	if s.LastBooking != nil {
		b := *s.LastBooking
		out.LastBooking = &b
	}
	return &out
}

func (s *Session) append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.CreatedAt
}

func (s *Session) resetFlow() {
	s.FlowState = FlowIdle
	s.Contact = booking.Contact{}
	s.Slots = nil
}

func cloneSlots(slots []booking.TimeSlot) []booking.TimeSlot {
	if slots == nil {
		return nil
	}
	return append([]booking.TimeSlot(nil), slots...)
}

func newUserMessage(text string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    AuthorUser,
		Text:      text,
		CreatedAt: now.UTC(),
		Kind:      KindText,
	}
}

func newAssistantMessage(text string, kind MessageKind, source MessageSource, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    AuthorAssistant,
		Text:      text,
		CreatedAt: now.UTC(),
		Kind:      kind,
		Source:    source,
	}
}
