package conversation

import "strings"

var (
	schedulingVerbs  = []string{"schedule", "book", "set up"}
	meetingNouns     = []string{"call", "meeting", "appointment"}
	canonicalPhrases = []string{"schedule a call", "book a call", "set up a meeting", "book an appointment"}
	softOfferPhrases = []string{"would you like me to schedule", "would you like to schedule a call"}
)

type triggerRule struct {
	name  string
	match func(lower string) bool
}

// Evaluated in order against the lowercased turn.
var schedulingTriggers = []triggerRule{
	{
		name:  "canonical-phrase",
		match: func(lower string) bool { return containsAny(lower, canonicalPhrases) },
	},
	{
		name: "verb-and-noun",
		match: func(lower string) bool {
			return containsAny(lower, schedulingVerbs) && containsAny(lower, meetingNouns)
		},
	},
}

// DetectSchedulingIntent reports whether the turn explicitly asks to book a
// call, and which rule matched.
func DetectSchedulingIntent(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range schedulingTriggers {
		if rule.match(lower) {
			return rule.name, true
		}
	}
	return "", false
}

// IsScheduleOffer reports whether an assistant reply offers to book a call.
func IsScheduleOffer(reply string) bool {
	return containsAny(strings.ToLower(reply), softOfferPhrases)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
