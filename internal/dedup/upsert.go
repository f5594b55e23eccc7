package dedup

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/model"
)

// Outcome says whether an upsert created or updated its row.
type Outcome string

const (
	Created Outcome = "created"
	Updated Outcome = "updated"
)

// Store defines the per-record operations the upserter needs. Insert
// methods are insert-if-absent and report whether a row was written.
type Store interface {
	GetCalendarEventByExternalID(ctx context.Context, userID, externalID string) (*model.CalendarEvent, error)
	InsertCalendarEvent(ctx context.Context, e *model.CalendarEvent) (bool, error)
	UpdateCalendarEvent(ctx context.Context, e *model.CalendarEvent) error

	GetMessageByExternalID(ctx context.Context, userID, externalID string) (*model.Message, error)
	InsertMessage(ctx context.Context, m *model.Message) (bool, error)
	UpdateMessage(ctx context.Context, m *model.Message) error
}

// Upserter maps external records onto internal rows idempotently.
type Upserter struct {
	store Store
}

// NewUpserter creates an Upserter.
func NewUpserter(st Store) *Upserter {
	return &Upserter{store: st}
}

// UpsertCalendarEvent writes e keyed on (UserID, ExternalID). An existing
// row is merged and updated in place; otherwise the row is inserted under
// its deterministic id. An insert that loses a race to a concurrent caller
// falls back to an update. The stored record is returned.
func (u *Upserter) UpsertCalendarEvent(ctx context.Context, e model.CalendarEvent) (model.CalendarEvent, Outcome, error) {
	if e.UserID == "" || e.ExternalID == "" {
		return e, "", eris.New("dedup: calendar event requires user id and external id")
	}
	e.ID = InternalID(NamespaceCalendarEvent, e.UserID, e.ExternalID)

	existing, err := u.store.GetCalendarEventByExternalID(ctx, e.UserID, e.ExternalID)
	if err != nil {
		return e, "", eris.Wrapf(err, "dedup: get calendar event %s", e.ExternalID)
	}
	if existing == nil {
		ok, err := u.store.InsertCalendarEvent(ctx, &e)
		if err != nil {
			return e, "", eris.Wrapf(err, "dedup: insert calendar event %s", e.ExternalID)
		}
		if ok {
			return e, Created, nil
		}
		zap.L().Debug("dedup: lost insert race, updating",
			zap.String("kind", "calendar_event"),
			zap.String("external_id", e.ExternalID),
		)
		existing, err = u.store.GetCalendarEventByExternalID(ctx, e.UserID, e.ExternalID)
		if err != nil {
			return e, "", eris.Wrapf(err, "dedup: get calendar event %s", e.ExternalID)
		}
		if existing == nil {
			return e, "", eris.Errorf("dedup: calendar event %s neither inserted nor found", e.ExternalID)
		}
	}

	merged := mergeCalendarEvent(*existing, e)
	if err := u.store.UpdateCalendarEvent(ctx, &merged); err != nil {
		return merged, "", eris.Wrapf(err, "dedup: update calendar event %s", e.ExternalID)
	}
	return merged, Updated, nil
}

// UpsertMessage is UpsertCalendarEvent for messages. The thread id is
// derived from the thread external id.
func (u *Upserter) UpsertMessage(ctx context.Context, m model.Message) (model.Message, Outcome, error) {
	if m.UserID == "" || m.ExternalID == "" {
		return m, "", eris.New("dedup: message requires user id and external id")
	}
	m.ID = InternalID(NamespaceMessage, m.UserID, m.ExternalID)
	if m.ThreadExternalID != "" {
		m.ThreadID = InternalID(NamespaceThread, m.UserID, m.ThreadExternalID)
	}

	existing, err := u.store.GetMessageByExternalID(ctx, m.UserID, m.ExternalID)
	if err != nil {
		return m, "", eris.Wrapf(err, "dedup: get message %s", m.ExternalID)
	}
	if existing == nil {
		ok, err := u.store.InsertMessage(ctx, &m)
		if err != nil {
			return m, "", eris.Wrapf(err, "dedup: insert message %s", m.ExternalID)
		}
		if ok {
			return m, Created, nil
		}
		zap.L().Debug("dedup: lost insert race, updating",
			zap.String("kind", "message"),
			zap.String("external_id", m.ExternalID),
		)
		existing, err = u.store.GetMessageByExternalID(ctx, m.UserID, m.ExternalID)
		if err != nil {
			return m, "", eris.Wrapf(err, "dedup: get message %s", m.ExternalID)
		}
		if existing == nil {
			return m, "", eris.Errorf("dedup: message %s neither inserted nor found", m.ExternalID)
		}
	}

	merged := mergeMessage(*existing, m)
	if err := u.store.UpdateMessage(ctx, &merged); err != nil {
		return merged, "", eris.Wrapf(err, "dedup: update message %s", m.ExternalID)
	}
	return merged, Updated, nil
}

// mergeCalendarEvent overlays provider fields from incoming onto existing.
// Identity and creation time are kept; a resolved company is never erased.
func mergeCalendarEvent(existing, incoming model.CalendarEvent) model.CalendarEvent {
	out := existing
	out.Title = incoming.Title
	out.Description = incoming.Description
	out.StartTime = incoming.StartTime
	out.EndTime = incoming.EndTime
	out.Attendees = incoming.Attendees
	if incoming.EventType != "" {
		out.EventType = incoming.EventType
	}
	if incoming.ProviderStatus != "" {
		out.ProviderStatus = incoming.ProviderStatus
	}
	if incoming.CompanyID != "" {
		out.CompanyID = incoming.CompanyID
	}
	return out
}

func mergeMessage(existing, incoming model.Message) model.Message {
	out := existing
	out.Subject = incoming.Subject
	out.FromAddress = incoming.FromAddress
	out.ToAddresses = incoming.ToAddresses
	out.Date = incoming.Date
	if incoming.MessageType != "" {
		out.MessageType = incoming.MessageType
	}
	if incoming.ThreadExternalID != "" {
		out.ThreadExternalID = incoming.ThreadExternalID
		out.ThreadID = incoming.ThreadID
	}
	if incoming.CompanyID != "" {
		out.CompanyID = incoming.CompanyID
	}
	return out
}
