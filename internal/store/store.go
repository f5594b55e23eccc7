// Package store persists companies, contacts, postings, tracker entries,
// calendar events, messages and the sync-run log. Every query is scoped by
// user id.
package store

import (
	"context"

	"github.com/sells-group/jobtrack/internal/model"
)

// Store is the full persistence interface of the engine. It satisfies the
// narrower interfaces declared by company, reconcile, dedup and tracker.
type Store interface {
	// Companies and contacts
	ListCompanies(ctx context.Context, userID string) ([]model.Company, error)
	GetCompany(ctx context.Context, userID, id string) (*model.Company, error)
	InsertCompany(ctx context.Context, c *model.Company) (bool, error)
	ListContacts(ctx context.Context, userID string) ([]model.Contact, error)
	InsertContact(ctx context.Context, c *model.Contact) (bool, error)

	// Postings
	ListPostingsByCompany(ctx context.Context, userID, companyID string) ([]model.JobPosting, error)
	GetPosting(ctx context.Context, userID, id string) (*model.JobPosting, error)
	CompareAndSetStatus(ctx context.Context, userID, id string, from, to model.JobStatus) (bool, error)
	SetPostingStatus(ctx context.Context, userID, id string, status model.JobStatus) error
	CreateApplication(ctx context.Context, p *model.JobPosting, e *model.TrackerEntry) (bool, error)

	// Tracker
	ListTrackerEntries(ctx context.Context, userID string) ([]model.TrackerEntry, error)
	AdvanceTrackerLastEvent(ctx context.Context, userID, entryID string, ev model.EventRef) (bool, error)

	// Calendar events
	GetCalendarEventByExternalID(ctx context.Context, userID, externalID string) (*model.CalendarEvent, error)
	InsertCalendarEvent(ctx context.Context, e *model.CalendarEvent) (bool, error)
	UpdateCalendarEvent(ctx context.Context, e *model.CalendarEvent) error
	ListCalendarEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error)

	// Messages
	GetMessageByExternalID(ctx context.Context, userID, externalID string) (*model.Message, error)
	InsertMessage(ctx context.Context, m *model.Message) (bool, error)
	UpdateMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, userID string) ([]model.Message, error)

	// Sync-run log
	StartSyncRun(ctx context.Context, userID string, kind model.SyncKind) (*model.SyncRun, error)
	CompleteSyncRun(ctx context.Context, id string, result *model.SyncResult) error
	FailSyncRun(ctx context.Context, id string, errMsg string) error
	ListSyncRuns(ctx context.Context, userID string, limit int) ([]model.SyncRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// defaultSyncRunLimit caps ListSyncRuns when no limit is given.
const defaultSyncRunLimit = 50
