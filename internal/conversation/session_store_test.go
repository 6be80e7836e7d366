package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/marketier-assistant/internal/booking"
)

func sampleSession() *Session {
	s := NewSession(testNow)
	s.append(newAssistantMessage(greetingText, KindText, SourceGreeting, testNow))
	s.append(newUserMessage("book a call", testNow.Add(time.Second)))
	s.FlowState = FlowSelectingTime
	s.Contact = booking.Contact{Name: "Jane Doe", Email: "jane@example.com"}
	s.Slots = booking.DefaultSlotPolicy(time.UTC).Generate(testNow)
	return s
}

func TestMemorySessionStore_RoundTripIsolated(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()
	s := sampleSession()

	require.NoError(t, store.Save(ctx, s))
	s.Messages[0].Text = "mutated after save"

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, greetingText, loaded.Messages[0].Text)
	assert.Equal(t, FlowSelectingTime, loaded.FlowState)
	assert.Len(t, loaded.Slots, 6)

	loaded.Slots[0].ID = "changed"
	again, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.Slots[0].ID)
}

func TestMemorySessionStore_NotFoundAndDelete(t *testing.T) {
	store := NewMemorySessionStore(0)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	assert.Error(t, store.Save(ctx, &Session{}))
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	now := testNow
	store.now = func() time.Time { return now }
	ctx := context.Background()

	stale := sampleSession()
	require.NoError(t, store.Save(ctx, stale))

	now = now.Add(59 * time.Minute)
	_, err := store.Load(ctx, stale.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, stale.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	// Saving another session sweeps anything expired.
	other := sampleSession()
	expired := sampleSession()
	require.NoError(t, store.Save(ctx, expired))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, other))
	assert.Equal(t, 1, store.Len())
}

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl, nil), mr
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	store, mr := newTestRedisStore(t, 30*time.Minute)
	ctx := context.Background()
	s := sampleSession()

	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKey(s.ID)))

	loaded, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, FlowSelectingTime, loaded.FlowState)
	assert.Equal(t, s.Contact, loaded.Contact)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, SourceGreeting, loaded.Messages[0].Source)
	assert.Equal(t, AuthorUser, loaded.Messages[1].Author)
	require.Len(t, loaded.Slots, len(s.Slots))
	for i := range s.Slots {
		assert.Equal(t, s.Slots[i].ID, loaded.Slots[i].ID)
		assert.True(t, s.Slots[i].StartTime.Equal(loaded.Slots[i].StartTime))
	}
	assert.True(t, s.CreatedAt.Equal(loaded.CreatedAt))
}

func TestRedisSessionStore_ExpiryAndDelete(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Load(ctx, "nope")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	s := sampleSession()
	require.NoError(t, store.Save(ctx, s))
	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, s.ID))
	assert.False(t, mr.Exists(sessionKey(s.ID)))
}

func TestRedisSessionStore_BackendError(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	mr.Close()

	_, err := store.Load(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
}
