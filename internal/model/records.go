package model

import (
	"time"
)

// Company is the canonical identity signals are resolved to.
type Company struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Domain    string    `json:"domain,omitempty" db:"domain"`
	Location  string    `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Contact is a person associated with a company. At most one contact per
// company per user is Primary.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CompanyID string    `json:"company_id,omitempty" db:"company_id"`
	Name      string    `json:"name,omitempty" db:"name"`
	Email     string    `json:"email" db:"email"`
	Position  string    `json:"position,omitempty" db:"position"`
	Primary   bool      `json:"primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// JobPosting holds the authoritative application status for a company.
type JobPosting struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Title     string    `json:"title" db:"title"`
	Status    JobStatus `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TrackerEntry is a denormalized view row for a job posting. It is never the
// source of truth for status.
type TrackerEntry struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	JobPostingID   string     `json:"job_posting_id" db:"job_posting_id"`
	CompanyID      string     `json:"company_id" db:"company_id"`
	LastEventID    string     `json:"last_event_id,omitempty" db:"last_event_id"`
	LastEventTitle string     `json:"last_event_title,omitempty" db:"last_event_title"`
	LastEventDate  *time.Time `json:"last_event_date,omitempty" db:"last_event_date"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// EventRef points a tracker entry at a calendar event.
type EventRef struct {
	ID    string
	Title string
	Date  time.Time
}

// CalendarEvent is a persisted, company-resolved calendar event.
type CalendarEvent struct {
	ID             string         `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	ExternalID     string         `json:"external_id" db:"external_id"`
	CompanyID      string         `json:"company_id" db:"company_id"`
	Title          string         `json:"title" db:"title"`
	Description    string         `json:"description,omitempty" db:"description"`
	StartTime      time.Time      `json:"start_time" db:"start_time"`
	EndTime        time.Time      `json:"end_time" db:"end_time"`
	EventType      EventType      `json:"event_type" db:"event_type"`
	ProviderStatus ProviderStatus `json:"provider_status" db:"provider_status"`
	Attendees      []string       `json:"attendees,omitempty" db:"attendees"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Message is a persisted, company-resolved inbound message.
type Message struct {
	ID               string      `json:"id" db:"id"`
	UserID           string      `json:"user_id" db:"user_id"`
	ExternalID       string      `json:"external_id" db:"external_id"`
	ThreadExternalID string      `json:"thread_external_id,omitempty" db:"thread_external_id"`
	ThreadID         string      `json:"thread_id,omitempty" db:"thread_id"`
	CompanyID        string      `json:"company_id" db:"company_id"`
	Subject          string      `json:"subject" db:"subject"`
	FromAddress      string      `json:"from_address" db:"from_address"`
	ToAddresses      []string    `json:"to_addresses,omitempty" db:"to_addresses"`
	MessageType      MessageType `json:"message_type" db:"message_type"`
	Date             time.Time   `json:"date" db:"date"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// SyncKind names the invocation a sync run belongs to.
type SyncKind string

const (
	SyncKindCalendar SyncKind = "calendar"
	SyncKindMessages SyncKind = "messages"
)

// SyncRunStatus is the lifecycle state of a sync run log entry.
type SyncRunStatus string

const (
	SyncRunRunning  SyncRunStatus = "running"
	SyncRunComplete SyncRunStatus = "complete"
	SyncRunFailed   SyncRunStatus = "failed"
)

// SyncRun is a log row describing one sync invocation.
type SyncRun struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Kind        SyncKind      `json:"kind"`
	Status      SyncRunStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Result      *SyncResult   `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
}
