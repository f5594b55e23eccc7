package classify

import (
	"strings"

	"github.com/sells-group/jobtrack/internal/model"
)

// MessageRule matches when the subject+body contains any of Phrases and,
// when Senders is non-empty, the sender address contains any of Senders.
type MessageRule struct {
	Type    model.MessageType
	Phrases []string
	Senders []string
}

// MessageOverride reclassifies a message that matched rule From as To when
// any of Phrases also appears.
type MessageOverride struct {
	From    model.MessageType
	To      model.MessageType
	Phrases []string
}

var unambiguousOfferPhrases = []string{
	"pleased to offer", "we would like to offer", "we'd like to offer", "happy to offer you", "offer letter", "extend an offer", "extend you an offer",
	"offer of employment", "formal offer", "excited to offer you", "job offer",
}

var messageRules = []MessageRule{
	{Type: model.MessageSpam, Phrases: []string{
		"you have won", "you've won", "claim your prize", "click here to claim",
		"act now", "limited time offer", "100% free", "wire transfer",
		"double your income", "bitcoin investment", "work from home and earn",
	}},
	{
		Type: model.MessageNewsletter,
		Phrases: []string{
			"unsubscribe", "manage your preferences", "email preferences",
			"opt out", "view in browser", "view this email in your browser",
		},
		Senders: []string{
			"newsletter", "digest", "news@", "updates@", "marketing", "promo",
			"mailer", "alert", "info@",
		},
	},
	{Type: model.MessageRejection, Phrases: []string{
		"not moving forward", "not be moving forward",
		"decided to move forward with other", "pursue other candidates",
		"regret to inform", "position has been filled", "not been selected",
		"were not selected", "will not be proceeding", "not proceed with your application",
		"no longer under consideration", "decided not to move forward",
		"unable to extend", "unable to offer", "not be extending", "not be making you",
		"no formal offer", "not be offering you",
	}},
	{Type: model.MessageOffer, Phrases: append([]string{"compensation package"}, unambiguousOfferPhrases...)},
	{Type: model.MessageNegotiation, Phrases: []string{
		"counter offer", "counteroffer", "counter-offer", "negotiat",
		"salary expectations", "signing bonus", "sign-on bonus", "base salary",
		"equity package", "compensation expectations",
	}},
	{Type: model.MessageInterviewScheduling, Phrases: []string{
		"schedule an interview", "schedule a call", "schedule time",
		"interview invitation", "invite you to interview", "invitation to interview",
		"your availability", "availability for", "calendly.com", "book a time",
		"pick a time", "next round", "interview confirmation", "set up a time",
		"phone screen", "technical interview", "onsite interview", "reschedul",
	}},
	{Type: model.MessageConfirmation, Phrases: []string{
		"application received", "received your application", "thank you for applying",
		"thanks for applying", "application has been submitted",
		"application was submitted", "application confirmation", "successfully applied",
	}},
	{Type: model.MessageRecruiterOutreach, Phrases: []string{
		"came across your profile", "came across your background", "your background",
		"reaching out", "would you be open", "would you be interested", "are you open to",
		"i'm a recruiter", "i am a recruiter", "talent acquisition", "exciting opportunity",
	}},
	{Type: model.MessageFollowUp, Phrases: []string{
		"following up", "follow up", "follow-up", "checking in", "circling back",
		"just wanted to check", "touch base",
	}},
}

var messageOverrides = []MessageOverride{
	{From: model.MessageRejection, To: model.MessageOffer, Phrases: unambiguousOfferPhrases},
}

// MessageRules returns a copy of the message rule table in evaluation order.
func MessageRules() []MessageRule {
	out := make([]MessageRule, len(messageRules))
	for i, r := range messageRules {
		out[i] = MessageRule{
			Type:    r.Type,
			Phrases: append([]string(nil), r.Phrases...),
			Senders: append([]string(nil), r.Senders...),
		}
	}
	return out
}

// MessageOverrides returns a copy of the override table.
func MessageOverrides() []MessageOverride {
	out := make([]MessageOverride, len(messageOverrides))
	for i, o := range messageOverrides {
		out[i] = MessageOverride{From: o.From, To: o.To, Phrases: append([]string(nil), o.Phrases...)}
	}
	return out
}

func (r MessageRule) matches(text, sender string) bool {
	if len(r.Senders) > 0 && !containsAny(sender, r.Senders) {
		return false
	}
	if r.Type == model.MessageOffer {
		return containsAffirmed(text, r.Phrases)
	}
	return containsAny(text, r.Phrases)
}

// negationWindow is how far back, within a sentence, a negation cue still
// applies to an offer phrase.
const negationWindow = 40

var negationCues = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "unable": {}, "cannot": {}, "without": {},
}

// containsAffirmed reports whether any phrase occurs in text without a
// negation cue earlier in the same sentence.
func containsAffirmed(text string, phrases []string) bool {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(text[from:], p)
			if i < 0 {
				break
			}
			at := from + i
			if !negated(text[:at]) {
				return true
			}
			from = at + len(p)
		}
	}
	return false
}

func negated(before string) bool {
	if i := strings.LastIndexAny(before, ".!?\n"); i >= 0 {
		before = before[i+1:]
	}
	if len(before) > negationWindow {
		before = before[len(before)-negationWindow:]
		// drop the word the cut landed in
		if i := strings.IndexByte(before, ' '); i >= 0 {
			before = before[i+1:]
		}
	}
	for _, w := range strings.Fields(before) {
		w = strings.Trim(w, ",;:()\"'")
		if _, ok := negationCues[w]; ok || strings.HasSuffix(w, "n't") {
			return true
		}
	}
	return false
}

// ClassifyMessage returns the type of a message. It never fails; unmatched
// messages are MessageGeneral.
func ClassifyMessage(subject, body, from string) model.MessageType {
	text := strings.ToLower(subject + " " + body)
	sender := strings.ToLower(strings.TrimSpace(from))

	for _, r := range messageRules {
		if !r.matches(text, sender) {
			continue
		}
		for _, o := range messageOverrides {
			if o.From == r.Type && containsAffirmed(text, o.Phrases) {
				return o.To
			}
		}
		return r.Type
	}
	return model.MessageGeneral
}
