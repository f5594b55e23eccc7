package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sells-group/jobtrack/internal/model"
)

const (
	companyColumns = "id, user_id, name, domain, location, created_at, updated_at"
	contactColumns = "id, user_id, company_id, name, email, position, is_primary, created_at"
	postingColumns = "id, user_id, company_id, title, status, created_at, updated_at"
	trackerColumns = "id, user_id, job_posting_id, company_id, last_event_id, last_event_title, last_event_date, updated_at"
	eventColumns   = "id, user_id, external_id, company_id, title, description, start_time, end_time, event_type, provider_status, attendees, created_at, updated_at"
	messageColumns = "id, user_id, external_id, thread_external_id, thread_id, company_id, subject, from_address, to_addresses, message_type, sent_at, created_at, updated_at"
)

type scannable interface {
	Scan(dest ...any) error
}

// scanCompany and scanPosting return the driver error unwrapped so callers
// can detect a missing row.
func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Domain, &c.Location, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPosting(row scannable) (*model.JobPosting, error) {
	var p model.JobPosting
	if err := row.Scan(&p.ID, &p.UserID, &p.CompanyID, &p.Title, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

// stampCreated fills zero creation and update times with the current time.
func stampCreated(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
