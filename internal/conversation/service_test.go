package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

type blockingCompleter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCompleter) Complete(ctx context.Context, _ string, _ []Message, _ string) (string, error) {
	close(b.entered)
	select {
	case <-b.release:
		return "Here's what we do.", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newTestService(t *testing.T, completer Completer) (*Service, *MemorySessionStore) {
	t.Helper()
	store := NewMemorySessionStore(time.Hour)
	return NewService(newTestController(t, completer, nil), store, nil, logging.Discard()), store
}

func TestService_StartSessionGreets(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, greetingText, session.Messages[0].Text)
	assert.Equal(t, SourceGreeting, session.Messages[0].Source)
	assert.Equal(t, FlowIdle, session.FlowState)

	loaded, err := svc.Session(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
}

func TestService_TurnsArePersisted(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	session, err := svc.StartSession(ctx)
	require.NoError(t, err)

	result, err := svc.SubmitTurn(ctx, session.ID, "book a call")
	require.NoError(t, err)
	assert.Equal(t, FlowCollecting, result.Session.FlowState)

	result, err = svc.SubmitTurn(ctx, session.ID, janeDetails)
	require.NoError(t, err)
	require.Len(t, result.Reply.Slots, 6)

	result, err = svc.SelectSlot(ctx, session.ID, result.Reply.Slots[2].ID)
	require.NoError(t, err)
	assert.Equal(t, KindBookingConfirmed, result.Reply.Kind)

	stored, err := store.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 7)
	assert.Equal(t, FlowIdle, stored.FlowState)
	require.NotNil(t, stored.LastBooking)
	assert.Equal(t, "Tuesday, Oct 20, 4:00 PM", stored.LastBooking.Slot.DisplayLabel)
}

func TestService_Errors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.SubmitTurn(ctx, "missing", "hello")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitTurn(ctx, session.ID, "")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.QuickAction(ctx, session.ID, "nope")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	loaded, err := svc.Session(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 1)
}

func TestService_RejectsConcurrentTurn(t *testing.T) {
	completer := &blockingCompleter{entered: make(chan struct{}), release: make(chan struct{})}
	svc, _ := newTestService(t, completer)
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	require.NoError(t, err)
	other, err := svc.StartSession(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitTurn(ctx, session.ID, "what do you offer?")
		done <- err
	}()
	<-completer.entered

	_, err = svc.SubmitTurn(ctx, session.ID, "hello?")
	assert.True(t, errors.Is(err, ErrTurnInProgress))
	assert.True(t, errors.Is(svc.EndSession(ctx, session.ID), ErrTurnInProgress))

	// Other sessions are unaffected.
	_, err = svc.SubmitTurn(ctx, other.ID, "book a call")
	assert.NoError(t, err)

	close(completer.release)
	require.NoError(t, <-done)

	result, err := svc.SubmitTurn(ctx, session.ID, "book a call")
	require.NoError(t, err)
	assert.Equal(t, FlowCollecting, result.Session.FlowState)
}

func TestService_CancelledCallerStillGetsSavedFallback(t *testing.T) {
	completer := &blockingCompleter{entered: make(chan struct{}), release: make(chan struct{})}
	svc, store := newTestService(t, completer)
	session, err := svc.StartSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-completer.entered
		cancel()
	}()
	result, err := svc.SubmitTurn(ctx, session.ID, "what do you offer?")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, result.Reply.Source)

	stored, err := store.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 3)
}

func TestService_EndSession(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	session, err := svc.StartSession(ctx)
	require.NoError(t, err)
	_, err = svc.SubmitTurn(ctx, session.ID, "book a call")
	require.NoError(t, err)

	require.NoError(t, svc.EndSession(ctx, session.ID))
	_, err = svc.Session(ctx, session.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(svc.EndSession(ctx, session.ID), ErrSessionNotFound))
}
