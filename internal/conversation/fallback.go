package conversation

import (
	"fmt"
	"strings"
)

// DefaultCalendarURL is the public booking page offered when automated
// booking is not possible.
const DefaultCalendarURL = "https://calendly.com/brettponters/marketier"

const genericFallbackReply = "That's a great question! I'd love to give you a detailed answer on our strategy call. Would you like me to schedule a call for you?"

type fallbackRule struct {
	name     string
	keywords []string
	reply    string
}

// FallbackResponder answers from a fixed keyword table when no completion is
// available. First matching rule wins.
type FallbackResponder struct {
	rules []fallbackRule
}

// NewFallbackResponder builds the canned reply table. The calendar URL is
// quoted in the scheduling reply.
func NewFallbackResponder(calendarURL string) *FallbackResponder {
	if strings.TrimSpace(calendarURL) == "" {
		calendarURL = DefaultCalendarURL
	}
	return &FallbackResponder{rules: []fallbackRule{
		{
			name:     "pricing",
			keywords: []string{"price", "cost", "pricing"},
			reply:    "Our partnership packages start at $997/month with no long-term contracts. We offer customized pricing based on your needs. Would you like to schedule a call to discuss pricing for your business?",
		},
		{
			name:     "tools",
			keywords: []string{"tools", "toolbox"},
			reply:    "Our AI toolbox includes analytics, content creation, social media automation, email marketing, and SEO tools - all managed for you! Want to see how these tools can transform your marketing?",
		},
		{
			name:     "playbooks",
			keywords: []string{"playbook", "strategy"},
			reply:    "Our Growth Playbooks are proven strategies tailored to your industry. We have playbooks for retail, healthcare, SaaS, e-commerce, and more. Which industry interests you most?",
		},
		{
			name:     "scheduling",
			keywords: []string{"schedule", "call", "meeting"},
			reply:    fmt.Sprintf("I'd be happy to help you schedule a strategy call! You can book directly at %s", calendarURL),
		},
		{
			name:     "services",
			keywords: []string{"service", "what do you do"},
			reply:    "We combine AI efficiency with human strategy to help small businesses grow faster and more affordably than traditional agencies. We focus on organic growth through SEO, content marketing, and automation - no paid ads needed!",
		},
		{
			name:     "results",
			keywords: []string{"result", "outcome", "timeline"},
			reply:    "Our clients typically see initial improvements in 2-4 weeks, with significant growth in 60-90 days. We're 3x faster and 50% more affordable than traditional agencies thanks to our AI-powered approach.",
		},
		{
			name:     "contracts",
			keywords: []string{"contract", "commitment"},
			reply:    "No long-term contracts required! You can cancel anytime with just 30 days notice. We believe our results should speak for themselves, not lock you into lengthy commitments.",
		},
		{
			name:     "thanks",
			keywords: []string{"thank"},
			reply:    "You're very welcome! Is there anything else about our services you'd like to know? I'm here to help, or we can set up a strategy call to dive deeper into your specific needs.",
		},
	}}
}

// Respond never fails; unmatched input gets a reply proposing a call.
func (f *FallbackResponder) Respond(text string) string {
	reply, _ := f.match(text)
	return reply
}

// match returns the reply and the name of the rule that produced it
// ("generic" when nothing matched).
func (f *FallbackResponder) match(text string) (string, string) {
	if f == nil {
		return genericFallbackReply, "generic"
	}
	lower := strings.ToLower(text)
	for _, rule := range f.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply, rule.name
			}
		}
	}
	return genericFallbackReply, "generic"
}
