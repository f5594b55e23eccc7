package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/model"
)

// DefaultApplicationTitle names postings created on a company's first
// status-bearing signal.
const DefaultApplicationTitle = "Application"

// DefaultCASRetries bounds how often a write is recomputed after losing a
// compare-and-set to another writer.
const DefaultCASRetries = 3

// Store defines the persistence operations reconciliation needs.
type Store interface {
	ListPostingsByCompany(ctx context.Context, userID, companyID string) ([]model.JobPosting, error)
	GetPosting(ctx context.Context, userID, id string) (*model.JobPosting, error)

	// CompareAndSetStatus sets the posting's status to to only if it is
	// still from, and reports whether the row changed.
	CompareAndSetStatus(ctx context.Context, userID, id string, from, to model.JobStatus) (bool, error)

	// SetPostingStatus writes status unconditionally.
	SetPostingStatus(ctx context.Context, userID, id string, status model.JobStatus) error

	// CreateApplication inserts a posting and its tracker entry in one
	// transaction unless the posting already exists.
	CreateApplication(ctx context.Context, p *model.JobPosting, e *model.TrackerEntry) (bool, error)
}

// PostingOutcome describes what reconciliation did to one posting.
type PostingOutcome struct {
	PostingID string          `json:"posting_id"`
	Before    model.JobStatus `json:"before"`
	After     model.JobStatus `json:"after"`
	Changed   bool            `json:"changed"`
}

// Result is the outcome of reconciling one company. Final is the highest
// ranked status across the company's postings, or empty when the company
// has none.
type Result struct {
	CompanyID string           `json:"company_id"`
	Final     model.JobStatus  `json:"final_status,omitempty"`
	Postings  []PostingOutcome `json:"postings"`
	Created   bool             `json:"application_created"`
}

// Changed reports whether any posting was written.
func (r Result) Changed() bool {
	for _, p := range r.Postings {
		if p.Changed {
			return true
		}
	}
	return false
}

// Reconciler applies the reconciliation policies to persisted postings.
// Writes for one company are serialized in-process and guarded by a
// compare-and-set against writers in other processes.
type Reconciler struct {
	store   Store
	locks   *keyedMutex
	retries int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithCASRetries sets the number of recomputations after a lost
// compare-and-set.
func WithCASRetries(n int) Option {
	return func(r *Reconciler) {
		if n >= 0 {
			r.retries = n
		}
	}
}

// New creates a Reconciler.
func New(st Store, opts ...Option) *Reconciler {
	r := &Reconciler{store: st, locks: newKeyedMutex(), retries: DefaultCASRetries}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ReplayBatch merges a batch of candidates for one company with the
// latest-evidence-wins policy. A company without a posting gets one when
// any candidate carries a valid status.
func (r *Reconciler) ReplayBatch(ctx context.Context, userID, companyID string, cands []Candidate) (Result, error) {
	create := false
	for _, c := range cands {
		if c.Status.Valid() {
			create = true
			break
		}
	}
	return r.run(ctx, userID, companyID, create, func(cur model.JobStatus) model.JobStatus {
		return ReplayLatest(cur, cands)
	})
}

// AdvanceStatus applies one candidate with the monotonic-only policy.
func (r *Reconciler) AdvanceStatus(ctx context.Context, userID, companyID string, candidate model.JobStatus) (Result, error) {
	return r.run(ctx, userID, companyID, candidate.Valid(), func(cur model.JobStatus) model.JobStatus {
		next, _ := Advance(cur, candidate)
		return next
	})
}

// SetStatus is an explicit user action: it writes status to every posting
// of the company, including out of terminal states.
func (r *Reconciler) SetStatus(ctx context.Context, userID, companyID string, status model.JobStatus) (Result, error) {
	if !status.Valid() {
		return Result{}, eris.Errorf("reconcile: invalid status %q", status)
	}

	unlock := r.locks.Lock(userID + "/" + companyID)
	defer unlock()

	postings, created, err := r.postings(ctx, userID, companyID, true)
	if err != nil {
		return Result{}, err
	}
	res := Result{CompanyID: companyID, Created: created}
	for _, p := range postings {
		out := PostingOutcome{PostingID: p.ID, Before: p.Status, After: status}
		if p.Status != status {
			if err := r.store.SetPostingStatus(ctx, userID, p.ID, status); err != nil {
				return res, eris.Wrapf(err, "reconcile: set status on posting %s", p.ID)
			}
			out.Changed = true
		}
		res.Postings = append(res.Postings, out)
	}
	res.Final = highest(res.Postings)
	return res, nil
}

func (r *Reconciler) run(ctx context.Context, userID, companyID string, create bool, decide func(model.JobStatus) model.JobStatus) (Result, error) {
	unlock := r.locks.Lock(userID + "/" + companyID)
	defer unlock()

	postings, created, err := r.postings(ctx, userID, companyID, create)
	if err != nil {
		return Result{}, err
	}

	res := Result{CompanyID: companyID, Created: created}
	for _, p := range postings {
		out, err := r.apply(ctx, userID, p, decide)
		if err != nil {
			return res, err
		}
		res.Postings = append(res.Postings, out)
	}
	res.Final = highest(res.Postings)
	return res, nil
}

// postings lists the company's postings, creating the default application
// when there are none and create is set.
func (r *Reconciler) postings(ctx context.Context, userID, companyID string, create bool) ([]model.JobPosting, bool, error) {
	postings, err := r.store.ListPostingsByCompany(ctx, userID, companyID)
	if err != nil {
		return nil, false, eris.Wrapf(err, "reconcile: list postings for company %s", companyID)
	}
	if len(postings) > 0 || !create {
		return postings, false, nil
	}

	p := &model.JobPosting{
		ID:        dedup.InternalID(dedup.NamespacePosting, userID, companyID),
		UserID:    userID,
		CompanyID: companyID,
		Title:     DefaultApplicationTitle,
		Status:    model.StatusInterested,
	}
	e := &model.TrackerEntry{
		ID:           dedup.InternalID(dedup.NamespaceTrackerRow, userID, p.ID),
		UserID:       userID,
		JobPostingID: p.ID,
		CompanyID:    companyID,
	}
	created, err := r.store.CreateApplication(ctx, p, e)
	if err != nil {
		return nil, false, eris.Wrapf(err, "reconcile: create application for company %s", companyID)
	}
	if created {
		zap.L().Info("reconcile: created application",
			zap.String("user_id", userID),
			zap.String("company_id", companyID),
			zap.String("posting_id", p.ID),
		)
	}

	postings, err = r.store.ListPostingsByCompany(ctx, userID, companyID)
	if err != nil {
		return nil, false, eris.Wrapf(err, "reconcile: list postings for company %s", companyID)
	}
	return postings, created, nil
}

// apply computes the posting's next status and writes it with a
// compare-and-set, recomputing from a fresh read when another writer got
// there first.
func (r *Reconciler) apply(ctx context.Context, userID string, p model.JobPosting, decide func(model.JobStatus) model.JobStatus) (PostingOutcome, error) {
	out := PostingOutcome{PostingID: p.ID, Before: p.Status, After: p.Status}
	cur := p.Status

	for attempt := 0; attempt <= r.retries; attempt++ {
		next := decide(cur)
		if next == cur {
			out.After = cur
			return out, nil
		}

		ok, err := r.store.CompareAndSetStatus(ctx, userID, p.ID, cur, next)
		if err != nil {
			return out, eris.Wrapf(err, "reconcile: update posting %s", p.ID)
		}
		if ok {
			zap.L().Debug("reconcile: status updated",
				zap.String("posting_id", p.ID),
				zap.String("from", string(cur)),
				zap.String("to", string(next)),
			)
			out.After = next
			out.Changed = true
			return out, nil
		}

		fresh, err := r.store.GetPosting(ctx, userID, p.ID)
		if err != nil {
			return out, eris.Wrapf(err, "reconcile: reload posting %s", p.ID)
		}
		if fresh == nil {
			return out, eris.Errorf("reconcile: posting %s disappeared", p.ID)
		}
		zap.L().Debug("reconcile: lost compare-and-set, retrying",
			zap.String("posting_id", p.ID),
			zap.String("expected", string(cur)),
			zap.String("found", string(fresh.Status)),
			zap.Int("attempt", attempt+1),
		)
		cur = fresh.Status
	}
	return out, eris.Errorf("reconcile: posting %s changed concurrently %d times", p.ID, r.retries+1)
}

func highest(outs []PostingOutcome) model.JobStatus {
	var best model.JobStatus
	for _, o := range outs {
		if best == "" || o.After.Rank() > best.Rank() {
			best = o.After
		}
	}
	return best
}
