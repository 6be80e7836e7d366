package conversation

import "testing"

func TestDetectSchedulingIntent(t *testing.T) {
	cases := []struct {
		in   string
		rule string
		ok   bool
	}{
		{"schedule a call", "canonical-phrase", true},
		{"Please BOOK A CALL for me", "canonical-phrase", true},
		{"can we set up a meeting", "canonical-phrase", true},
		{"I want to book an appointment", "canonical-phrase", true},
		{"could you schedule the meeting for tuesday", "verb-and-noun", true},
		{"book me in for a call", "verb-and-noun", true},
		{"set up an appointment", "verb-and-noun", true},
		{"what does a strategy call cover?", "", false},
		{"how do I schedule posts?", "", false},
		{"what's your pricing", "", false},
	}
	for _, tc := range cases {
		rule, ok := DetectSchedulingIntent(tc.in)
		if ok != tc.ok || rule != tc.rule {
			t.Errorf("DetectSchedulingIntent(%q) = (%q, %v), want (%q, %v)", tc.in, rule, ok, tc.rule, tc.ok)
		}
	}
}

func TestIsScheduleOffer(t *testing.T) {
	yes := []string{
		"Would you like me to schedule a call for you?",
		"Happy to help. WOULD YOU LIKE TO SCHEDULE A CALL with our team?",
	}
	no := []string{
		"You can book at our calendar.",
		"Would you like to see our playbooks?",
		"",
	}
	for _, s := range yes {
		if !IsScheduleOffer(s) {
			t.Errorf("IsScheduleOffer(%q) = false", s)
		}
	}
	for _, s := range no {
		if IsScheduleOffer(s) {
			t.Errorf("IsScheduleOffer(%q) = true", s)
		}
	}
}
