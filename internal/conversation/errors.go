package conversation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTurnLength caps user turns and forwarded history entries, in characters.
const MaxTurnLength = 1000

var (
	// ErrInvalidInput is the only error that escapes the controller.
	ErrInvalidInput = errors.New("conversation: invalid input")
	// ErrProviderUnavailable covers every remote completion failure.
	ErrProviderUnavailable = errors.New("conversation: completion provider unavailable")
	// ErrBookingProviderUnavailable covers slot lookup and booking failures.
	ErrBookingProviderUnavailable = errors.New("conversation: booking provider unavailable")
	// ErrExtractionIncomplete means a turn did not yield both name and email.
	ErrExtractionIncomplete = errors.New("conversation: contact details incomplete")

	ErrSessionNotFound = errors.New("conversation: session not found")
	ErrTurnInProgress  = errors.New("conversation: turn already in progress")
)

// ValidateTurn trims the turn and enforces the non-empty and length rules.
func ValidateTurn(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: turn is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxTurnLength {
		return "", fmt.Errorf("%w: turn exceeds %d characters", ErrInvalidInput, MaxTurnLength)
	}
	return text, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
