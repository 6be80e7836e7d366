package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/marketier-assistant/internal/observability/metrics"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const (
	greetingText = "Hi! I'm your AI marketing assistant. I can help you learn about our services, pricing, and schedule a strategy call. What would you like to know?"
	// AcceptOfferTurn is submitted when the user accepts a schedule offer.
	AcceptOfferTurn = "Yes, schedule a call"
)

// QuickAction is a widget shortcut that submits a canonical turn.
type QuickAction struct {
	Action string `json:"action"`
	Label  string `json:"label"`
}

// QuickActions lists the shortcuts offered with a new session.
var QuickActions = []QuickAction{
	{Action: "schedule", Label: "Schedule a Call"},
	{Action: "pricing", Label: "View Pricing"},
	{Action: "playbooks", Label: "See Playbooks"},
	{Action: "toolbox", Label: "Learn About Tools"},
}

// QuickActionTurn returns the turn text for a quick action.
func QuickActionTurn(action string) (string, bool) {
	for _, qa := range QuickActions {
		if qa.Action == action {
			return qa.Label, true
		}
	}
	return "", false
}

// Controller decides how each user turn is answered: by the active booking
// flow, by starting one, by the completion provider, or by the fallback table.
type Controller struct {
	completer    Completer
	fallback     *FallbackResponder
	flow         *BookingFlow
	systemPrompt string
	now          func() time.Time
	metrics      *metrics.ConversationMetrics
	logger       *logging.Logger
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithCompleter sets the remote completion client. Without one every
// non-booking turn is answered by the fallback table.
func WithCompleter(c Completer) ControllerOption {
	return func(ctrl *Controller) { ctrl.completer = c }
}

// WithSystemPrompt overrides the marketing system instructions.
func WithSystemPrompt(prompt string) ControllerOption {
	return func(ctrl *Controller) { ctrl.systemPrompt = prompt }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(ctrl *Controller) {
		if now != nil {
			ctrl.now = now
		}
	}
}

// WithMetrics records turn routing.
func WithMetrics(m *metrics.ConversationMetrics) ControllerOption {
	return func(ctrl *Controller) { ctrl.metrics = m }
}

// NewController wires the dialogue controller.
func NewController(flow *BookingFlow, fallback *FallbackResponder, logger *logging.Logger, opts ...ControllerOption) *Controller {
	if flow == nil {
		panic("conversation: booking flow cannot be nil")
	}
	if fallback == nil {
		fallback = NewFallbackResponder(flow.calendarURL)
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Controller{
		fallback:     fallback,
		flow:         flow,
		systemPrompt: SystemPrompt(flow.calendarURL),
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompletionConfigured reports whether a remote provider is wired.
func (c *Controller) CompletionConfigured() bool { return c.completer != nil }

// BookingProvider returns the scheduling backend name.
func (c *Controller) BookingProvider() string { return c.flow.ProviderName() }

// Greet appends the opening assistant message.
func (c *Controller) Greet(s *Session) Message {
	msg := newAssistantMessage(greetingText, KindText, SourceGreeting, c.now())
	s.append(msg)
	return msg
}

// HandleTurn appends the user turn and exactly one assistant reply to the
// session. Only ErrInvalidInput is returned; every other failure is answered.
func (c *Controller) HandleTurn(ctx context.Context, s *Session, text string) (Message, error) {
	text, err := ValidateTurn(text)
	if err != nil {
		return Message{}, err
	}
	s.append(newUserMessage(text, c.now()))

	var (
		reply Message
		route string
	)
	if s.BookingActive() {
		reply, route = c.flow.Handle(ctx, s, text), "booking"
	} else if rule, ok := DetectSchedulingIntent(text); ok {
		c.logger.Debug("scheduling intent detected", "session_id", s.ID, "rule", rule)
		reply, route = c.flow.Start(s), "trigger"
	} else {
		prior := s.Messages[:len(s.Messages)-1]
		replyText, source := c.Reply(ctx, text, prior)
		reply, route = c.assistantReply(replyText, source), string(source)
	}

	s.append(reply)
	c.metrics.ObserveTurn(route)
	return reply, nil
}

// AcceptScheduleOffer answers the affirmative action on a schedule offer.
func (c *Controller) AcceptScheduleOffer(ctx context.Context, s *Session) (Message, error) {
	return c.HandleTurn(ctx, s, AcceptOfferTurn)
}

// SelectSlot submits a slot pick. The turn carries the slot label when the
// slot is on offer so the transcript reads naturally.
func (c *Controller) SelectSlot(ctx context.Context, s *Session, slotID string) (Message, error) {
	text := slotID
	for _, slot := range s.Slots {
		if slot.ID == slotID {
			text = slot.DisplayLabel
			break
		}
	}
	return c.HandleTurn(ctx, s, text)
}

// QuickAction submits the canonical turn for a widget shortcut.
func (c *Controller) QuickAction(ctx context.Context, s *Session, action string) (Message, error) {
	text, ok := QuickActionTurn(action)
	if !ok {
		return Message{}, fmt.Errorf("%w: unknown quick action %q", ErrInvalidInput, action)
	}
	return c.HandleTurn(ctx, s, text)
}

// Abandon ends any in-progress booking flow.
func (c *Controller) Abandon(s *Session) {
	c.flow.Abandon(s)
}

// Reply answers a free-form turn from the completion provider, or from the
// fallback table when the provider is absent or fails.
func (c *Controller) Reply(ctx context.Context, text string, history []Message) (string, MessageSource) {
	if c.completer != nil {
		reply, err := c.completer.Complete(ctx, text, history, c.systemPrompt)
		if err == nil {
			return reply, SourceCompletion
		}
		if !errors.Is(err, ErrProviderUnavailable) {
			c.logger.Warn("unexpected completion error", "error", err)
		}
	}
	reply, rule := c.fallback.match(text)
	c.logger.Debug("answered from fallback table", "rule", rule)
	return reply, SourceFallback
}

func (c *Controller) assistantReply(text string, source MessageSource) Message {
	kind := KindText
	if IsScheduleOffer(text) {
		kind = KindScheduleOffer
	}
	return newAssistantMessage(text, kind, source, c.now())
}
