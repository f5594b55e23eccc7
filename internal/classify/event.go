// Package classify assigns semantic types to calendar events and messages
// using ordered keyword rule tables. Both classifiers are pure and total.
package classify

import (
	"strings"

	"github.com/sells-group/jobtrack/internal/model"
)

// EventRule maps any of its keywords to an event type.
type EventRule struct {
	Type     model.EventType
	Keywords []string
}

// eventRules is evaluated in order against the lower-cased title and
// description; the first rule with a matching keyword wins.
var eventRules = []EventRule{
	{Type: model.EventPhoneScreen, Keywords: []string{
		"phone screen", "phone interview", "phone call", "screening call",
		"recruiter screen", "recruiter call", "intro call", "initial call", "screening",
	}},
	{Type: model.EventOnsite, Keywords: []string{
		"onsite", "on-site", "on site", "final round", "final interview", "superday",
	}},
	{Type: model.EventTechnicalInterview, Keywords: []string{
		"technical", "coding", "system design", "leetcode", "pair programming",
		"take-home", "take home", "whiteboard", "hackerrank", "codesignal",
	}},
	{Type: model.EventInterview, Keywords: []string{
		"interview",
	}},
	{Type: model.EventChat, Keywords: []string{
		"coffee", "chat", "catch up", "catch-up", "informational", "meet and greet",
	}},
	{Type: model.EventInfoSession, Keywords: []string{
		"info session", "information session", "webinar", "open house",
		"career fair", "networking event",
	}},
}

// EventRules returns a copy of the event rule table in evaluation order.
func EventRules() []EventRule {
	out := make([]EventRule, len(eventRules))
	for i, r := range eventRules {
		out[i] = EventRule{Type: r.Type, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// ClassifyEvent returns the type of a calendar event. It never fails;
// unmatched events are EventOther.
func ClassifyEvent(title, description string) model.EventType {
	text := strings.ToLower(title + " " + description)
	for _, r := range eventRules {
		if containsAny(text, r.Keywords) {
			return r.Type
		}
	}
	return model.EventOther
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
