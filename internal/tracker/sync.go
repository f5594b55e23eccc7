// Package tracker keeps each tracker entry's last-event pointer in step with
// the user's calendar.
package tracker

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/model"
)

// Store is the persistence the synchronizer needs.
type Store interface {
	ListCalendarEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error)
	ListTrackerEntries(ctx context.Context, userID string) ([]model.TrackerEntry, error)
	AdvanceTrackerLastEvent(ctx context.Context, userID, entryID string, ev model.EventRef) (bool, error)
}

// Report summarizes one synchronizer pass.
type Report struct {
	Entries int `json:"entries"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// LatestByCompany returns the most recent event per company across the whole
// collection. Cancelled events and events without a company are ignored. When
// two events start at the same time the larger external id wins.
func LatestByCompany(events []model.CalendarEvent) map[string]model.EventRef {
	latest := make(map[string]model.CalendarEvent)
	for _, ev := range events {
		if ev.CompanyID == "" || ev.ProviderStatus == model.ProviderCancelled {
			continue
		}
		cur, ok := latest[ev.CompanyID]
		if !ok || later(ev, cur) {
			latest[ev.CompanyID] = ev
		}
	}

	out := make(map[string]model.EventRef, len(latest))
	for companyID, ev := range latest {
		out[companyID] = model.EventRef{ID: ev.ID, Title: ev.Title, Date: ev.StartTime}
	}
	return out
}

func later(a, b model.CalendarEvent) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	return a.ExternalID > b.ExternalID
}

// Synchronizer recomputes tracker last-event pointers from stored events.
type Synchronizer struct {
	store Store
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(st Store) *Synchronizer {
	return &Synchronizer{store: st}
}

// Sync points every tracker entry of userID at its company's latest event.
// The store only applies an update when the recorded event is missing,
// older, or the same event with changed details. A failed entry is logged
// and counted; the pass continues.
func (s *Synchronizer) Sync(ctx context.Context, userID string) (Report, error) {
	var report Report

	events, err := s.store.ListCalendarEvents(ctx, userID)
	if err != nil {
		return report, eris.Wrap(err, "tracker: list calendar events")
	}
	entries, err := s.store.ListTrackerEntries(ctx, userID)
	if err != nil {
		return report, eris.Wrap(err, "tracker: list tracker entries")
	}
	report.Entries = len(entries)

	latest := LatestByCompany(events)
	for _, entry := range entries {
		ref, ok := latest[entry.CompanyID]
		if !ok {
			continue
		}
		if entry.LastEventDate != nil && entry.LastEventDate.After(ref.Date) {
			continue
		}
		updated, err := s.store.AdvanceTrackerLastEvent(ctx, userID, entry.ID, ref)
		if err != nil {
			report.Failed++
			zap.L().Warn("tracker: advance last event failed",
				zap.String("user_id", userID),
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
			continue
		}
		if updated {
			report.Updated++
		}
	}

	zap.L().Debug("tracker: sync complete",
		zap.String("user_id", userID),
		zap.Int("entries", report.Entries),
		zap.Int("updated", report.Updated),
	)
	return report, nil
}
