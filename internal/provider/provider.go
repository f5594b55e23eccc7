// Package provider declares the calendar and mail sources the sync pipeline
// reads from, and normalizes their payloads at the boundary.
package provider

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobtrack/internal/model"
)

// ErrAuthExpired means the user's credential for a provider is no longer
// valid. It is never retried and fails a sync before any write.
var ErrAuthExpired = eris.New("provider: authorization expired")

// PageTooLargeError means one invocation would carry more items than the
// configured limit. Count may be a lower bound when a provider stops paging
// early.
type PageTooLargeError struct {
	Count int
	Limit int
}

func (e *PageTooLargeError) Error() string {
	return fmt.Sprintf("page of %d items exceeds limit of %d", e.Count, e.Limit)
}

// CalendarProvider lists a user's calendar events in a date range.
type CalendarProvider interface {
	ListEvents(ctx context.Context, userID string, r model.DateRange) ([]model.CalendarItem, error)
}

// MailProvider lists a user's inbound messages in a date range. Bodies are
// plain text.
type MailProvider interface {
	ListMessages(ctx context.Context, userID string, r model.DateRange) ([]model.MailItem, error)
}

// CalendarFunc adapts a function to CalendarProvider.
type CalendarFunc func(ctx context.Context, userID string, r model.DateRange) ([]model.CalendarItem, error)

func (f CalendarFunc) ListEvents(ctx context.Context, userID string, r model.DateRange) ([]model.CalendarItem, error) {
	return f(ctx, userID, r)
}

// MailFunc adapts a function to MailProvider.
type MailFunc func(ctx context.Context, userID string, r model.DateRange) ([]model.MailItem, error)

func (f MailFunc) ListMessages(ctx context.Context, userID string, r model.DateRange) ([]model.MailItem, error) {
	return f(ctx, userID, r)
}
