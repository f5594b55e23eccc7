// Package ingest runs sync invocations: it pulls a page of provider signals,
// resolves each to a company, classifies it, persists it idempotently and
// reconciles the company's application status.
package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/company"
	"github.com/sells-group/jobtrack/internal/config"
	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/importer"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/reconcile"
	"github.com/sells-group/jobtrack/internal/tracker"
)

// DefaultMaxPageSize bounds the items one invocation will process.
const DefaultMaxPageSize = 250

// ErrInvalidRequest marks a request the caller must fix.
var ErrInvalidRequest = eris.New("ingest: invalid request")

// PageTooLargeError is returned, before any write, when a provider page
// holds more items than the configured limit.
type PageTooLargeError = provider.PageTooLargeError

// Store is the persistence an Engine needs.
type Store interface {
	company.Store
	reconcile.Store
	dedup.Store
	tracker.Store
	importer.Store

	StartSyncRun(ctx context.Context, userID string, kind model.SyncKind) (*model.SyncRun, error)
	CompleteSyncRun(ctx context.Context, id string, result *model.SyncResult) error
	FailSyncRun(ctx context.Context, id string, errMsg string) error
	ListSyncRuns(ctx context.Context, userID string, limit int) ([]model.SyncRun, error)
}

// SyncRequest names the user and window of one sync invocation.
type SyncRequest struct {
	UserID    string          `json:"user_id"`
	UserEmail string          `json:"user_email,omitempty"`
	Range     model.DateRange `json:"range"`
}

func (r SyncRequest) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return eris.Wrap(ErrInvalidRequest, "user id is required")
	}
	if err := r.Range.Validate(); err != nil {
		return eris.Wrap(ErrInvalidRequest, err.Error())
	}
	return nil
}

// Engine wires the resolver, classifiers, upserter, reconciler and tracker
// synchronizer over one store. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	store      Store
	calendar   provider.CalendarProvider
	mail       provider.MailProvider
	cfg        config.SyncConfig
	upserter   *dedup.Upserter
	reconciler *reconcile.Reconciler
	tracker    *tracker.Synchronizer
}

// New creates an Engine. Either provider may be nil when the corresponding
// sync is not used.
func New(st Store, calendar provider.CalendarProvider, mail provider.MailProvider, cfg config.SyncConfig) *Engine {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = DefaultMaxPageSize
	}
	if cfg.SelfAddressThreshold <= 0 {
		cfg.SelfAddressThreshold = company.DefaultSelfThreshold
	}
	opts := []reconcile.Option{}
	if cfg.CASRetries > 0 {
		opts = append(opts, reconcile.WithCASRetries(cfg.CASRetries))
	}
	return &Engine{
		store:      st,
		calendar:   calendar,
		mail:       mail,
		cfg:        cfg,
		upserter:   dedup.NewUpserter(st),
		reconciler: reconcile.New(st, opts...),
		tracker:    tracker.NewSynchronizer(st),
	}
}

// policy builds the domain policy for a user whose own address is
// userEmail.
func (e *Engine) policy(userEmail string) company.DomainPolicy {
	return company.NewDomainPolicy(company.EmailDomain(userEmail), e.cfg.ExtraGenericDomains...)
}

func (e *Engine) checkPage(n int) error {
	if n > e.cfg.MaxPageSize {
		return &PageTooLargeError{Count: n, Limit: e.cfg.MaxPageSize}
	}
	return nil
}

// ResolveCompany resolves signals against the user's existing companies and
// contacts without creating anything. The user's own address and automated
// senders are dropped first.
func (e *Engine) ResolveCompany(ctx context.Context, userID, userEmail string, sig company.Signals) (company.Match, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return company.Match{}, false, eris.Wrap(ErrInvalidRequest, "user id is required")
	}
	companies, err := e.store.ListCompanies(ctx, userID)
	if err != nil {
		return company.Match{}, false, eris.Wrap(err, "ingest: list companies")
	}
	contacts, err := e.store.ListContacts(ctx, userID)
	if err != nil {
		return company.Match{}, false, eris.Wrap(err, "ingest: list contacts")
	}
	dir := company.NewDirectory(companies, contacts, e.policy(userEmail))
	sig.Emails = company.Participants(sig.Emails, selfSet(userEmail))
	m, ok := dir.Resolve(sig)
	return m, ok, nil
}

// ReconcileStatus merges candidates into the company's postings with the
// latest-evidence-wins batch policy.
func (e *Engine) ReconcileStatus(ctx context.Context, userID, companyID string, cands []reconcile.Candidate) (reconcile.Result, error) {
	if userID == "" || companyID == "" {
		return reconcile.Result{}, eris.Wrap(ErrInvalidRequest, "user id and company id are required")
	}
	return e.reconciler.ReplayBatch(ctx, userID, companyID, cands)
}

// SetStatus records an explicit user status change.
func (e *Engine) SetStatus(ctx context.Context, userID, companyID string, status model.JobStatus) (reconcile.Result, error) {
	if userID == "" || companyID == "" {
		return reconcile.Result{}, eris.Wrap(ErrInvalidRequest, "user id and company id are required")
	}
	if !status.Valid() {
		return reconcile.Result{}, eris.Wrapf(ErrInvalidRequest, "unknown status %q", status)
	}
	return e.reconciler.SetStatus(ctx, userID, companyID, status)
}

// UpsertEvent writes a calendar event keyed on its external id.
func (e *Engine) UpsertEvent(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, dedup.Outcome, error) {
	return e.upserter.UpsertCalendarEvent(ctx, ev)
}

// UpsertMessage writes a message keyed on its external id.
func (e *Engine) UpsertMessage(ctx context.Context, m model.Message) (model.Message, dedup.Outcome, error) {
	return e.upserter.UpsertMessage(ctx, m)
}

// SyncTracker recomputes every tracker entry's last-event pointer.
func (e *Engine) SyncTracker(ctx context.Context, userID string) (tracker.Report, error) {
	if userID == "" {
		return tracker.Report{}, eris.Wrap(ErrInvalidRequest, "user id is required")
	}
	return e.tracker.Sync(ctx, userID)
}

// ImportTrackerRows writes hand-maintained tracker rows for a user.
func (e *Engine) ImportTrackerRows(ctx context.Context, userID, userEmail string, rows []importer.Row) (model.SyncResult, error) {
	if err := e.checkPage(len(rows)); err != nil {
		return model.SyncResult{}, err
	}
	return importer.New(e.store, e.policy(userEmail)).Import(ctx, userID, rows)
}

// SyncRuns lists the user's most recent sync runs.
func (e *Engine) SyncRuns(ctx context.Context, userID string, limit int) ([]model.SyncRun, error) {
	return e.store.ListSyncRuns(ctx, userID, limit)
}

// startRun opens a sync-run log entry. Failures are logged and yield an
// empty id.
func (e *Engine) startRun(ctx context.Context, userID string, kind model.SyncKind) string {
	run, err := e.store.StartSyncRun(ctx, userID, kind)
	if err != nil {
		zap.L().Warn("ingest: failed to record sync run start",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return ""
	}
	return run.ID
}

func (e *Engine) finishRun(ctx context.Context, runID string, res *model.SyncResult, runErr error) {
	if runID == "" {
		return
	}
	var err error
	if runErr != nil {
		err = e.store.FailSyncRun(ctx, runID, runErr.Error())
	} else {
		err = e.store.CompleteSyncRun(ctx, runID, res)
	}
	if err != nil {
		zap.L().Warn("ingest: failed to record sync run result",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
}

// syncTrackerBestEffort runs the tracker pass after a batch. Its failure
// never fails the invocation.
func (e *Engine) syncTrackerBestEffort(ctx context.Context, userID string) {
	report, err := e.tracker.Sync(ctx, userID)
	if err != nil {
		zap.L().Warn("ingest: tracker sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if report.Failed > 0 {
		zap.L().Warn("ingest: tracker sync incomplete",
			zap.String("user_id", userID),
			zap.Int("failed", report.Failed),
		)
	}
}

// reconcileBatch replays each company's candidates in first-seen order.
// Failures are recorded per company.
func (e *Engine) reconcileBatch(ctx context.Context, userID string, order []string, cands map[string][]reconcile.Candidate, res *model.SyncResult) {
	for _, companyID := range order {
		if _, err := e.reconciler.ReplayBatch(ctx, userID, companyID, cands[companyID]); err != nil {
			zap.L().Warn("ingest: reconcile failed",
				zap.String("user_id", userID),
				zap.String("company_id", companyID),
				zap.Error(err),
			)
			res.AddError(model.ItemReconcileFailure, "", companyID, err)
		}
	}
}

func selfSet(addrs ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		if e := company.NormalizeEmail(a); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}
