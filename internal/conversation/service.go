package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/marketier-assistant/internal/observability/metrics"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// TurnResult is returned for every answered turn.
type TurnResult struct {
	Reply   Message  `json:"reply"`
	Session *Session `json:"session"`
}

// Service loads a session, runs one controller operation on it and stores
// the result. At most one operation runs per session at a time.
type Service struct {
	controller *Controller
	store      SessionStore
	locker     TurnLocker
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTurnLocker replaces the in-process turn guard, typically with a
// RedisTurnLocker when several instances share one session store.
func WithTurnLocker(l TurnLocker) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// NewService creates the session service.
func NewService(controller *Controller, store SessionStore, m *metrics.ConversationMetrics, logger *logging.Logger, opts ...ServiceOption) *Service {
	if controller == nil {
		panic("conversation: controller cannot be nil")
	}
	if store == nil {
		store = NewMemorySessionStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{controller: controller, store: store, locker: NewMemoryTurnLocker(), metrics: m, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Controller exposes the dialogue controller for stateless callers.
func (s *Service) Controller() *Controller { return s.controller }

// StartSession creates a session holding the greeting.
func (s *Service) StartSession(ctx context.Context) (*Session, error) {
	session := NewSession(s.controller.now())
	s.controller.Greet(session)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.SessionStarted()
	s.logger.Info("chat session started", "session_id", session.ID)
	return session, nil
}

// Session returns a snapshot of a live session.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	return s.store.Load(ctx, strings.TrimSpace(id))
}

// SubmitTurn answers a free-text turn.
func (s *Service) SubmitTurn(ctx context.Context, id, text string) (*TurnResult, error) {
	if _, err := ValidateTurn(text); err != nil {
		return nil, err
	}
	return s.run(ctx, id, func(session *Session) (Message, error) {
		return s.controller.HandleTurn(ctx, session, text)
	})
}

// SelectSlot picks one of the presented time slots.
func (s *Service) SelectSlot(ctx context.Context, id, slotID string) (*TurnResult, error) {
	return s.run(ctx, id, func(session *Session) (Message, error) {
		return s.controller.SelectSlot(ctx, session, slotID)
	})
}

// AcceptScheduleOffer accepts a schedule offer from the assistant.
func (s *Service) AcceptScheduleOffer(ctx context.Context, id string) (*TurnResult, error) {
	return s.run(ctx, id, func(session *Session) (Message, error) {
		return s.controller.AcceptScheduleOffer(ctx, session)
	})
}

// QuickAction submits a widget shortcut.
func (s *Service) QuickAction(ctx context.Context, id, action string) (*TurnResult, error) {
	if _, ok := QuickActionTurn(action); !ok {
		return nil, fmt.Errorf("%w: unknown quick action %q", ErrInvalidInput, action)
	}
	return s.run(ctx, id, func(session *Session) (Message, error) {
		return s.controller.QuickAction(ctx, session, action)
	})
}

// EndSession abandons any booking in progress and forgets the session.
func (s *Service) EndSession(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	session, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	s.controller.Abandon(session)
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.SessionEnded()
	s.logger.Info("chat session ended", "session_id", id)
	return nil
}

func (s *Service) run(ctx context.Context, id string, op func(*Session) (Message, error)) (*TurnResult, error) {
	id = strings.TrimSpace(id)
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	reply, err := op(session)
	if err != nil {
		return nil, err
	}

	// The reply is already part of the session; persist it even if the
	// caller went away while the provider was answering.
	if err := s.store.Save(context.WithoutCancel(ctx), session); err != nil {
		return nil, err
	}
	s.logger.Debug("turn handled", "session_id", id, "kind", reply.Kind, "source", reply.Source, "flow_state", session.FlowState, "elapsed_ms", time.Since(started).Milliseconds())
	return &TurnResult{Reply: reply, Session: session}, nil
}
