package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProvider(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	policy := DefaultSlotPolicy(time.UTC)
	p := NewDemoProvider(policy, func() time.Time { return now })
	assert.Equal(t, "demo", p.Name())

	start, end := policy.Window(now)
	slots, err := p.ListAvailableSlots(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	// Narrow window only returns what falls inside it.
	narrow, err := p.ListAvailableSlots(context.Background(), start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, narrow, 3)

	contact := Contact{Name: "Jane Doe", Email: "jane@example.com"}
	result, err := p.CreateBooking(context.Background(), slots[0], contact)
	require.NoError(t, err)
	assert.Equal(t, contact, result.Contact)
	assert.Equal(t, slots[0], result.Slot)
	assert.True(t, result.ConfirmedAt.Equal(now))
	assert.True(t, strings.HasPrefix(result.ConfirmationID, "demo_"))
	assert.Equal(t, "demo", result.Provider)
}
