package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/classify"
	"github.com/sells-group/jobtrack/internal/company"
	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/reconcile"
)

// SyncCalendar pulls the user's events for the window and ingests them.
// An expired credential or an oversized page fails the call before any
// write; every other failure is per item.
func (e *Engine) SyncCalendar(ctx context.Context, req SyncRequest) (model.SyncResult, error) {
	if err := req.validate(); err != nil {
		return model.SyncResult{}, err
	}
	if e.calendar == nil {
		return model.SyncResult{}, eris.New("ingest: no calendar provider configured")
	}

	items, err := e.calendar.ListEvents(ctx, req.UserID, req.Range)
	if err != nil {
		return model.SyncResult{}, eris.Wrap(err, "ingest: list calendar events")
	}
	return e.IngestEvents(ctx, req.UserID, req.UserEmail, items)
}

// IngestEvents runs the calendar pipeline over an already fetched page.
func (e *Engine) IngestEvents(ctx context.Context, userID, userEmail string, items []model.CalendarItem) (model.SyncResult, error) {
	if err := e.checkPage(len(items)); err != nil {
		return model.SyncResult{}, err
	}

	start := time.Now()
	log := zap.L().With(zap.String("user_id", userID), zap.String("kind", string(model.SyncKindCalendar)))
	runID := e.startRun(ctx, userID, model.SyncKindCalendar)
	res := model.SyncResult{Errors: []model.ItemError{}}

	resolver, err := company.NewResolver(ctx, e.store, userID, e.policy(userEmail))
	if err != nil {
		err = eris.Wrap(err, "ingest: load directory")
		e.finishRun(ctx, runID, &res, err)
		return res, err
	}
	self := selfSet(userEmail)

	seen := make(map[string]struct{}, len(items))
	cands := make(map[string][]reconcile.Candidate)
	var order []string

	for _, item := range items {
		if item.ExternalID == "" {
			res.Skipped++
			res.AddError(model.ItemInvalid, "", "", eris.New("ingest: calendar item without external id"))
			continue
		}
		if _, dup := seen[item.ExternalID]; dup {
			res.Skipped++
			continue
		}
		seen[item.ExternalID] = struct{}{}

		participants := company.Participants(item.AttendeeEmails, self)
		match, ok, err := resolver.ResolveOrCreate(ctx, company.Signals{Emails: participants, Text: item.Title})
		if err != nil {
			log.Warn("ingest: resolution failed", zap.String("external_id", item.ExternalID), zap.Error(err))
			res.AddError(model.ItemResolutionFailure, item.ExternalID, "", err)
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.NewContacts += match.NewContacts

		description := provider.PlainBody(item.Description)
		status := item.Status
		if status == "" {
			status = model.ProviderConfirmed
		}
		ev := model.CalendarEvent{
			UserID:         userID,
			ExternalID:     item.ExternalID,
			CompanyID:      match.CompanyID,
			Title:          strings.TrimSpace(item.Title),
			Description:    description,
			StartTime:      item.Start.UTC(),
			EndTime:        item.End.UTC(),
			EventType:      classify.ClassifyEvent(item.Title, description),
			ProviderStatus: status,
			Attendees:      item.AttendeeEmails,
		}

		_, outcome, err := e.upserter.UpsertCalendarEvent(ctx, ev)
		if err != nil {
			log.Warn("ingest: persist event failed", zap.String("external_id", item.ExternalID), zap.Error(err))
			res.AddError(model.ItemPersistenceFailure, item.ExternalID, match.CompanyID, err)
			continue
		}
		countOutcome(&res, outcome)

		if status == model.ProviderCancelled {
			continue
		}
		if st, ok := reconcile.InferEvent(ev.EventType); ok {
			if _, known := cands[match.CompanyID]; !known {
				order = append(order, match.CompanyID)
			}
			cands[match.CompanyID] = append(cands[match.CompanyID], reconcile.Candidate{
				Status: st,
				At:     ev.StartTime,
				Source: "calendar:" + item.ExternalID,
			})
		}
	}

	e.reconcileBatch(ctx, userID, order, cands, &res)
	e.syncTrackerBestEffort(ctx, userID)
	e.finishRun(ctx, runID, &res, nil)

	log.Info("ingest: calendar sync complete",
		zap.Int("items", len(items)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("new_contacts", res.NewContacts),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func countOutcome(res *model.SyncResult, o dedup.Outcome) {
	switch o {
	case dedup.Created:
		res.Created++
	case dedup.Updated:
		res.Updated++
	}
}
