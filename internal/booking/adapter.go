// Package booking provides the scheduling provider contract used by the
// assistant's booking flow, the shared slot/contact/result types, and the
// deterministic slot generator that stands in for a live calendar.
package booking

import (
	"context"
	"strings"
	"time"
)

// Contact holds the invitee details collected during the booking flow.
// Name and Email are required; Company and Phone are optional.
type Contact struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// MissingFields lists the required fields that are still empty.
func (c Contact) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	return missing
}

// IsZero reports whether no field has been collected.
func (c Contact) IsZero() bool {
	return c == Contact{}
}

// TimeSlot is a single bookable start time.
type TimeSlot struct {
	ID           string    `json:"id"`
	StartTime    time.Time `json:"start_time"`
	DisplayLabel string    `json:"display_label"`
}

// BookingResult is the terminal artifact of a completed booking. It is
// created once by a Provider and never mutated afterwards.
type BookingResult struct {
	Contact        Contact   `json:"contact"`
	Slot           TimeSlot  `json:"slot"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
	ConfirmationID string    `json:"confirmation_id,omitempty"`
	Provider       string    `json:"provider,omitempty"`
}

// Provider is implemented by scheduling backends (Calendly, the demo
// generator). Implementations must be safe for concurrent use since one
// provider serves every session.
type Provider interface {
	// Name returns the provider identifier (e.g. "calendly", "demo").
	Name() string

	// ListAvailableSlots returns open start times within [start, end).
	ListAvailableSlots(ctx context.Context, start, end time.Time) ([]TimeSlot, error)

	// CreateBooking books the given slot for the contact.
	CreateBooking(ctx context.Context, slot TimeSlot, contact Contact) (*BookingResult, error)
}
