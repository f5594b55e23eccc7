package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// EventType is the semantic class of a calendar event.
type EventType string

const (
	EventPhoneScreen        EventType = "phone_screen"
	EventOnsite             EventType = "onsite"
	EventTechnicalInterview EventType = "technical_interview"
	EventInterview          EventType = "interview"
	EventChat               EventType = "chat"
	EventInfoSession        EventType = "info_session"
	EventOther              EventType = "other"
)

// AllEventTypes returns every EventType.
func AllEventTypes() []EventType {
	return []EventType{
		EventPhoneScreen, EventOnsite, EventTechnicalInterview,
		EventInterview, EventChat, EventInfoSession, EventOther,
	}
}

// MessageType is the semantic class of an inbound message.
type MessageType string

const (
	MessageConfirmation        MessageType = "confirmation"
	MessageRecruiterOutreach   MessageType = "recruiter_outreach"
	MessageInterviewScheduling MessageType = "interview_scheduling"
	MessageRejection           MessageType = "rejection"
	MessageOffer               MessageType = "offer"
	MessageNegotiation         MessageType = "negotiation"
	MessageFollowUp            MessageType = "follow_up"
	MessageSpam                MessageType = "spam"
	MessageNewsletter          MessageType = "newsletter"
	MessageGeneral             MessageType = "general"
)

// AllMessageTypes returns every MessageType.
func AllMessageTypes() []MessageType {
	return []MessageType{
		MessageConfirmation, MessageRecruiterOutreach, MessageInterviewScheduling,
		MessageRejection, MessageOffer, MessageNegotiation, MessageFollowUp,
		MessageSpam, MessageNewsletter, MessageGeneral,
	}
}

// ProviderStatus is the calendar provider's own status for an event.
type ProviderStatus string

const (
	ProviderConfirmed ProviderStatus = "confirmed"
	ProviderTentative ProviderStatus = "tentative"
	ProviderCancelled ProviderStatus = "cancelled"
)

// NormalizeProviderStatus maps provider spellings onto ProviderStatus,
// defaulting to confirmed.
func NormalizeProviderStatus(raw string) ProviderStatus {
	switch raw {
	case "cancelled", "canceled", "CANCELLED", "CANCELED":
		return ProviderCancelled
	case "tentative", "TENTATIVE":
		return ProviderTentative
	default:
		return ProviderConfirmed
	}
}

// CalendarItem is one calendar event as delivered by a calendar provider,
// normalized at the ingestion boundary.
type CalendarItem struct {
	ExternalID     string         `json:"external_id" yaml:"external_id"`
	Title          string         `json:"title" yaml:"title"`
	Description    string         `json:"description,omitempty" yaml:"description"`
	Start          time.Time      `json:"start" yaml:"start"`
	End            time.Time      `json:"end" yaml:"end"`
	AttendeeEmails []string       `json:"attendee_emails,omitempty" yaml:"attendee_emails"`
	Status         ProviderStatus `json:"status,omitempty" yaml:"status"`
}

// MailItem is one message as delivered by a mail provider, normalized at the
// ingestion boundary. Body is plain text.
type MailItem struct {
	ExternalID       string    `json:"external_id" yaml:"external_id"`
	ThreadExternalID string    `json:"thread_external_id,omitempty" yaml:"thread_external_id"`
	Subject          string    `json:"subject" yaml:"subject"`
	Body             string    `json:"body,omitempty" yaml:"body"`
	FromAddress      string    `json:"from_address" yaml:"from_address"`
	ToAddresses      []string  `json:"to_addresses,omitempty" yaml:"to_addresses"`
	Date             time.Time `json:"date" yaml:"date"`
}

// DateRange is a half-open [From, To) window requested from a provider.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate checks that the range is non-empty.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return eris.New("model: date range requires from and to")
	}
	if !r.To.After(r.From) {
		return eris.Errorf("model: date range end %s is not after start %s",
			r.To.Format(time.RFC3339), r.From.Format(time.RFC3339))
	}
	return nil
}
