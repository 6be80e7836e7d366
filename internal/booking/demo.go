package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DemoProvider stands in for a live calendar: availability comes from the
// slot policy and every booking succeeds. It is what the booking flow uses
// when no scheduling provider is configured.
type DemoProvider struct {
	policy SlotPolicy
	now    func() time.Time
}

// NewDemoProvider creates a demo provider. A nil clock uses time.Now.
func NewDemoProvider(policy SlotPolicy, now func() time.Time) *DemoProvider {
	if now == nil {
		now = time.Now
	}
	return &DemoProvider{policy: policy.normalized(), now: now}
}

// Name returns "demo".
func (p *DemoProvider) Name() string { return "demo" }

// ListAvailableSlots returns the generated slots that fall inside [start, end).
func (p *DemoProvider) ListAvailableSlots(_ context.Context, start, end time.Time) ([]TimeSlot, error) {
	generated := p.policy.Generate(p.now())
	out := make([]TimeSlot, 0, len(generated))
	for _, slot := range generated {
		if slot.StartTime.Before(start) || !slot.StartTime.Before(end) {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

// CreateBooking confirms immediately.
func (p *DemoProvider) CreateBooking(_ context.Context, slot TimeSlot, contact Contact) (*BookingResult, error) {
	return &BookingResult{
		Contact:        contact,
		Slot:           slot,
		ConfirmedAt:    p.now().UTC(),
		ConfirmationID: "demo_" + uuid.NewString(),
		Provider:       p.Name(),
	}, nil
}
