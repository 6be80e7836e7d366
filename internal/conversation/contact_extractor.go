package conversation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/marketier-assistant/internal/booking"
)

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`\+?[1-9][\d\s\-()]{7,}`)
)

// ExtractContact reads contact details from a free-text turn, one field per
// line: the first email-looking line is the email, the first phone-looking
// line is the phone, then the first remaining line is the name and the next
// is the company. Ambiguous input only leaves fields empty. The error wraps
// ErrExtractionIncomplete when name or email is missing; the partially filled
// contact is still returned.
func ExtractContact(text string) (booking.Contact, error) {
	var c booking.Contact
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := emailPattern.FindString(line); m != "" {
			if c.Email == "" {
				c.Email = m
			}
			continue
		}
		if m := phonePattern.FindString(line); m != "" {
			if c.Phone == "" {
				c.Phone = strings.TrimSpace(m)
			}
			continue
		}
		switch {
		case c.Name == "":
			c.Name = line
		case c.Company == "":
			c.Company = line
		}
	}

	if missing := c.MissingFields(); len(missing) > 0 {
		return c, fmt.Errorf("%w: missing %s", ErrExtractionIncomplete, strings.Join(missing, ", "))
	}
	return c, nil
}
