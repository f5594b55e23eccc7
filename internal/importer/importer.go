package importer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/company"
	"github.com/sells-group/jobtrack/internal/dedup"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/reconcile"
)

// Store defines the persistence operations an import needs.
type Store interface {
	company.Store
	GetPosting(ctx context.Context, userID, id string) (*model.JobPosting, error)
	SetPostingStatus(ctx context.Context, userID, id string, status model.JobStatus) error
	CreateApplication(ctx context.Context, p *model.JobPosting, e *model.TrackerEntry) (bool, error)
}

// Importer writes tracker rows for one user.
type Importer struct {
	store  Store
	policy company.DomainPolicy
}

// New creates an Importer. policy decides which row domains may identify a
// company.
func New(st Store, policy company.DomainPolicy) *Importer {
	return &Importer{store: st, policy: policy}
}

// Import upserts rows. Each row resolves its company by domain or name,
// creating it when unknown, then creates or updates one posting keyed on
// the row. A status on the row is an explicit user action and is written
// unconditionally. Invalid rows are recorded and skipped.
func (im *Importer) Import(ctx context.Context, userID string, rows []Row) (model.SyncResult, error) {
	res := model.SyncResult{Errors: []model.ItemError{}}
	if userID == "" {
		return res, eris.New("importer: user id is required")
	}

	companies, err := im.store.ListCompanies(ctx, userID)
	if err != nil {
		return res, eris.Wrap(err, "importer: list companies")
	}
	contacts, err := im.store.ListContacts(ctx, userID)
	if err != nil {
		return res, eris.Wrap(err, "importer: list contacts")
	}
	dir := company.NewDirectory(companies, contacts, im.policy)

	for i, row := range rows {
		key := rowKey(row)
		if strings.TrimSpace(row.Company) == "" {
			res.Skipped++
			res.AddError(model.ItemInvalid, key, "", eris.Errorf("importer: row %d has no company", i+1))
			continue
		}
		var status model.JobStatus
		if row.Status != "" {
			status, err = model.ParseJobStatus(row.Status)
			if err != nil {
				res.Skipped++
				res.AddError(model.ItemInvalid, key, "", err)
				continue
			}
		}

		co, err := im.resolveCompany(ctx, dir, userID, row)
		if err != nil {
			res.AddError(model.ItemPersistenceFailure, key, "", err)
			continue
		}

		created, err := im.upsertPosting(ctx, userID, co.ID, key, row.Title, status)
		if err != nil {
			res.AddError(model.ItemPersistenceFailure, key, co.ID, err)
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	zap.L().Info("importer: rows imported",
		zap.String("user_id", userID),
		zap.Int("rows", len(rows)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (im *Importer) resolveCompany(ctx context.Context, dir *company.Directory, userID string, row Row) (model.Company, error) {
	domain := rowDomain(row.Domain)
	if domain != "" && !im.policy.Excluded(domain) {
		if id, ok := dir.DomainOwner(domain); ok {
			co, _ := dir.Company(id)
			return co, nil
		}
	} else {
		domain = ""
	}
	if co, ok := dir.FindByName(row.Company); ok {
		return co, nil
	}

	externalKey := domain
	if externalKey == "" {
		externalKey = "name:" + company.CompactName(row.Company)
	}
	co := model.Company{
		ID:       dedup.InternalID(dedup.NamespaceCompany, userID, externalKey),
		UserID:   userID,
		Name:     strings.TrimSpace(row.Company),
		Domain:   domain,
		Location: strings.TrimSpace(row.Location),
	}
	if _, err := im.store.InsertCompany(ctx, &co); err != nil {
		return co, eris.Wrapf(err, "importer: create company %s", co.Name)
	}
	dir.Add(co)
	return co, nil
}

// upsertPosting creates the row's posting with its tracker entry, or
// applies the row's status to the existing posting.
func (im *Importer) upsertPosting(ctx context.Context, userID, companyID, key, title string, status model.JobStatus) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = reconcile.DefaultApplicationTitle
	}
	initial := status
	if initial == "" {
		initial = model.StatusInterested
	}

	p := &model.JobPosting{
		ID:        dedup.InternalID(dedup.NamespacePosting, userID, "import:"+key),
		UserID:    userID,
		CompanyID: companyID,
		Title:     title,
		Status:    initial,
	}
	e := &model.TrackerEntry{
		ID:           dedup.InternalID(dedup.NamespaceTrackerRow, userID, p.ID),
		UserID:       userID,
		JobPostingID: p.ID,
		CompanyID:    companyID,
	}
	created, err := im.store.CreateApplication(ctx, p, e)
	if err != nil {
		return false, eris.Wrapf(err, "importer: create posting %s", key)
	}
	if created || status == "" {
		return created, nil
	}

	existing, err := im.store.GetPosting(ctx, userID, p.ID)
	if err != nil {
		return false, eris.Wrapf(err, "importer: get posting %s", key)
	}
	if existing != nil && existing.Status != status {
		if err := im.store.SetPostingStatus(ctx, userID, p.ID, status); err != nil {
			return false, eris.Wrapf(err, "importer: set status %s", key)
		}
	}
	return false, nil
}

// rowDomain accepts a bare domain or a website URL.
func rowDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

// rowKey is the row's external id, or its company and title when the
// sheet carries no ids.
func rowKey(row Row) string {
	if id := strings.TrimSpace(row.ExternalID); id != "" {
		return id
	}
	return company.CompactName(row.Company) + "|" + strings.ToLower(strings.TrimSpace(row.Title))
}
