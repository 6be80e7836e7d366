// Package calendly contains the Calendly scheduling API client and the
// booking.Provider adapter built on it.
package calendly

import "time"

// AvailableTime is one entry of an event type's availability.
type AvailableTime struct {
	Status            string    `json:"status"`
	StartTime         time.Time `json:"start_time"`
	InviteesRemaining int       `json:"invitees_remaining"`
	SchedulingURL     string    `json:"scheduling_url,omitempty"`
}

// Invitee identifies the person being booked.
type Invitee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Timezone string `json:"timezone,omitempty"`
}

// QuestionAnswer carries an answer to a custom event-type question.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

// InviteeRequest creates a scheduled event for an invitee.
type InviteeRequest struct {
	EventType           string           `json:"event_type"`
	StartTime           time.Time        `json:"start_time"`
	Invitee             Invitee          `json:"invitee"`
	QuestionsAndAnswers []QuestionAnswer `json:"questions_and_answers,omitempty"`
}

// InviteeResource is the created invitee returned by Calendly.
type InviteeResource struct {
	URI       string    `json:"uri"`
	Event     string    `json:"event"`
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
