package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/jobtrack/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// A single connection is used so transactions serialize writers.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	company_id TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL,
	position   TEXT NOT NULL DEFAULT '',
	is_primary INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS job_postings (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	company_id TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'interested',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tracker_entries (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	job_posting_id   TEXT NOT NULL UNIQUE,
	company_id       TEXT NOT NULL,
	last_event_id    TEXT NOT NULL DEFAULT '',
	last_event_title TEXT NOT NULL DEFAULT '',
	last_event_date  DATETIME,
	updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS calendar_events (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	external_id     TEXT NOT NULL,
	company_id      TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	start_time      DATETIME NOT NULL,
	end_time        DATETIME NOT NULL,
	event_type      TEXT NOT NULL,
	provider_status TEXT NOT NULL DEFAULT 'confirmed',
	attendees       TEXT NOT NULL DEFAULT '[]',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	external_id        TEXT NOT NULL,
	thread_external_id TEXT NOT NULL DEFAULT '',
	thread_id          TEXT NOT NULL DEFAULT '',
	company_id         TEXT NOT NULL,
	subject            TEXT NOT NULL DEFAULT '',
	from_address       TEXT NOT NULL DEFAULT '',
	to_addresses       TEXT NOT NULL DEFAULT '[]',
	message_type       TEXT NOT NULL,
	sent_at            DATETIME NOT NULL,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME,
	result       TEXT,
	error        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_companies_user ON companies(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_user_email ON contacts(user_id, email);
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_primary ON contacts(user_id, company_id)
	WHERE is_primary = 1 AND company_id <> '';
CREATE INDEX IF NOT EXISTS idx_job_postings_company ON job_postings(user_id, company_id);
CREATE INDEX IF NOT EXISTS idx_tracker_entries_user ON tracker_entries(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_calendar_events_external ON calendar_events(user_id, external_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_external ON messages(user_id, external_id);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(user_id, thread_id);
CREATE INDEX IF NOT EXISTS idx_sync_runs_user ON sync_runs(user_id, started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Companies and contacts

func (s *SQLiteStore) ListCompanies(ctx context.Context, userID string) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, userID, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCompany(row)
	if isNoRows(err) {
		return nil, nil
	}
	return c, eris.Wrapf(err, "sqlite: get company %s", id)
}

func (s *SQLiteStore) InsertCompany(ctx context.Context, c *model.Company) (bool, error) {
	stampCreated(&c.CreatedAt, &c.UpdatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		c.ID, c.UserID, c.Name, c.Domain, c.Location, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert company %s", c.ID)
	}
	return inserted(res)
}

func (s *SQLiteStore) ListContacts(ctx context.Context, userID string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.CompanyID, &c.Name, &c.Email, &c.Position, &c.Primary, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) InsertContact(ctx context.Context, c *model.Contact) (bool, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: begin insert contact")
	}
	defer tx.Rollback() //nolint:errcheck

	if c.Primary && c.CompanyID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE contacts SET is_primary = 0 WHERE user_id = ? AND company_id = ? AND id <> ?`,
			c.UserID, c.CompanyID, c.ID,
		); err != nil {
			return false, eris.Wrapf(err, "sqlite: clear primary contact for %s", c.CompanyID)
		}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		c.ID, c.UserID, c.CompanyID, c.Name, c.Email, c.Position, c.Primary, c.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert contact %s", c.ID)
	}
	ok, err := inserted(res)
	if err != nil || !ok {
		return false, err
	}
	return true, eris.Wrap(tx.Commit(), "sqlite: commit insert contact")
}

// Postings

func (s *SQLiteStore) ListPostingsByCompany(ctx context.Context, userID, companyID string) ([]model.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE user_id = ? AND company_id = ? ORDER BY created_at, id`,
		userID, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list postings for %s", companyID)
	}
	defer rows.Close()

	var out []model.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan posting")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list postings iterate")
}

func (s *SQLiteStore) GetPosting(ctx context.Context, userID, id string) (*model.JobPosting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE user_id = ? AND id = ?`, userID, id)
	p, err := scanPosting(row)
	if isNoRows(err) {
		return nil, nil
	}
	return p, eris.Wrapf(err, "sqlite: get posting %s", id)
}

func (s *SQLiteStore) CompareAndSetStatus(ctx context.Context, userID, id string, from, to model.JobStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_postings SET status = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, userID, string(from),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: compare and set status %s", id)
	}
	return inserted(res)
}

func (s *SQLiteStore) SetPostingStatus(ctx context.Context, userID, id string, status model.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_postings SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(status), time.Now().UTC(), id, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set status %s", id)
	}
	return checkRowsAffected(res, "posting", id)
}

func (s *SQLiteStore) CreateApplication(ctx context.Context, p *model.JobPosting, e *model.TrackerEntry) (bool, error) {
	stampCreated(&p.CreatedAt, &p.UpdatedAt)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = p.UpdatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: begin create application")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO job_postings (`+postingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		p.ID, p.UserID, p.CompanyID, p.Title, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert posting %s", p.ID)
	}
	ok, err := inserted(res)
	if err != nil || !ok {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tracker_entries (`+trackerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		e.ID, e.UserID, e.JobPostingID, e.CompanyID, e.LastEventID, e.LastEventTitle, nullTime(e.LastEventDate), e.UpdatedAt,
	); err != nil {
		return false, eris.Wrapf(err, "sqlite: insert tracker entry %s", e.ID)
	}
	return true, eris.Wrap(tx.Commit(), "sqlite: commit create application")
}

// Tracker

func (s *SQLiteStore) ListTrackerEntries(ctx context.Context, userID string) ([]model.TrackerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackerColumns+` FROM tracker_entries WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tracker entries")
	}
	defer rows.Close()

	var out []model.TrackerEntry
	for rows.Next() {
		var e model.TrackerEntry
		var last sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.JobPostingID, &e.CompanyID,
			&e.LastEventID, &e.LastEventTitle, &last, &e.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tracker entry")
		}
		if last.Valid {
			t := last.Time
			e.LastEventDate = &t
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list tracker entries iterate")
}

func (s *SQLiteStore) AdvanceTrackerLastEvent(ctx context.Context, userID, entryID string, ev model.EventRef) (bool, error) {
	date := ev.Date.UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracker_entries
		 SET last_event_id = ?, last_event_title = ?, last_event_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?
		   AND (last_event_date IS NULL OR last_event_date < ?
		        OR (last_event_id = ? AND (last_event_date <> ? OR last_event_title <> ?)))`,
		ev.ID, ev.Title, date, time.Now().UTC(),
		entryID, userID,
		date, ev.ID, date, ev.Title,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: advance tracker entry %s", entryID)
	}
	return inserted(res)
}

// Calendar events

func (s *SQLiteStore) GetCalendarEventByExternalID(ctx context.Context, userID, externalID string) (*model.CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE user_id = ? AND external_id = ?`, userID, externalID)
	e, err := scanSQLiteEvent(row)
	if isNoRows(err) {
		return nil, nil
	}
	return e, eris.Wrapf(err, "sqlite: get calendar event %s", externalID)
}

func (s *SQLiteStore) InsertCalendarEvent(ctx context.Context, e *model.CalendarEvent) (bool, error) {
	stampCreated(&e.CreatedAt, &e.UpdatedAt)
	attendees, err := encodeList(e.Attendees)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		e.ID, e.UserID, e.ExternalID, e.CompanyID, e.Title, e.Description,
		e.StartTime.UTC(), e.EndTime.UTC(), string(e.EventType), string(e.ProviderStatus), attendees,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert calendar event %s", e.ExternalID)
	}
	return inserted(res)
}

func (s *SQLiteStore) UpdateCalendarEvent(ctx context.Context, e *model.CalendarEvent) error {
	e.UpdatedAt = time.Now().UTC()
	attendees, err := encodeList(e.Attendees)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE calendar_events SET company_id = ?, title = ?, description = ?, start_time = ?, end_time = ?,
		 event_type = ?, provider_status = ?, attendees = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.CompanyID, e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(),
		string(e.EventType), string(e.ProviderStatus), attendees, e.UpdatedAt,
		e.ID, e.UserID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update calendar event %s", e.ExternalID)
	}
	return checkRowsAffected(res, "calendar event", e.ID)
}

func (s *SQLiteStore) ListCalendarEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE user_id = ? ORDER BY start_time, external_id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list calendar events")
	}
	defer rows.Close()

	var out []model.CalendarEvent
	for rows.Next() {
		e, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan calendar event")
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list calendar events iterate")
}

// Messages

func (s *SQLiteStore) GetMessageByExternalID(ctx context.Context, userID, externalID string) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE user_id = ? AND external_id = ?`, userID, externalID)
	m, err := scanSQLiteMessage(row)
	if isNoRows(err) {
		return nil, nil
	}
	return m, eris.Wrapf(err, "sqlite: get message %s", externalID)
}

func (s *SQLiteStore) InsertMessage(ctx context.Context, m *model.Message) (bool, error) {
	stampCreated(&m.CreatedAt, &m.UpdatedAt)
	to, err := encodeList(m.ToAddresses)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		m.ID, m.UserID, m.ExternalID, m.ThreadExternalID, m.ThreadID, m.CompanyID,
		m.Subject, m.FromAddress, to, string(m.MessageType), m.Date.UTC(),
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert message %s", m.ExternalID)
	}
	return inserted(res)
}

func (s *SQLiteStore) UpdateMessage(ctx context.Context, m *model.Message) error {
	m.UpdatedAt = time.Now().UTC()
	to, err := encodeList(m.ToAddresses)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET thread_external_id = ?, thread_id = ?, company_id = ?, subject = ?,
		 from_address = ?, to_addresses = ?, message_type = ?, sent_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		m.ThreadExternalID, m.ThreadID, m.CompanyID, m.Subject,
		m.FromAddress, to, string(m.MessageType), m.Date.UTC(), m.UpdatedAt,
		m.ID, m.UserID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update message %s", m.ExternalID)
	}
	return checkRowsAffected(res, "message", m.ID)
}

func (s *SQLiteStore) ListMessages(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE user_id = ? ORDER BY sent_at, external_id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list messages")
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		m, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan message")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list messages iterate")
}

// Sync-run log

func (s *SQLiteStore) StartSyncRun(ctx context.Context, userID string, kind model.SyncKind) (*model.SyncRun, error) {
	run := &model.SyncRun{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Status:    model.SyncRunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, user_id, kind, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.UserID, string(run.Kind), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: start sync run for %s", userID)
	}
	return run, nil
}

func (s *SQLiteStore) CompleteSyncRun(ctx context.Context, id string, result *model.SyncResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sync result")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, completed_at = ?, result = ? WHERE id = ?`,
		string(model.SyncRunComplete), time.Now().UTC(), string(resultJSON), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete sync run %s", id)
	}
	return checkRowsAffected(res, "sync run", id)
}

func (s *SQLiteStore) FailSyncRun(ctx context.Context, id string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(model.SyncRunFailed), time.Now().UTC(), errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail sync run %s", id)
	}
	return checkRowsAffected(res, "sync run", id)
}

func (s *SQLiteStore) ListSyncRuns(ctx context.Context, userID string, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = defaultSyncRunLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, kind, status, started_at, completed_at, result, error
		 FROM sync_runs WHERE user_id = ? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sync runs")
	}
	defer rows.Close()

	var out []model.SyncRun
	for rows.Next() {
		var r model.SyncRun
		var completed sql.NullTime
		var result sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &r.Status, &r.StartedAt, &completed, &result, &r.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sync run")
		}
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		if result.Valid {
			r.Result = &model.SyncResult{}
			if err := json.Unmarshal([]byte(result.String), r.Result); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal sync result")
			}
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sync runs iterate")
}

// helpers

func scanSQLiteEvent(row scannable) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	var attendees string
	err := row.Scan(&e.ID, &e.UserID, &e.ExternalID, &e.CompanyID, &e.Title, &e.Description,
		&e.StartTime, &e.EndTime, &e.EventType, &e.ProviderStatus, &attendees, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if e.Attendees, err = decodeList(attendees); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanSQLiteMessage(row scannable) (*model.Message, error) {
	var m model.Message
	var to string
	err := row.Scan(&m.ID, &m.UserID, &m.ExternalID, &m.ThreadExternalID, &m.ThreadID, &m.CompanyID,
		&m.Subject, &m.FromAddress, &to, &m.MessageType, &m.Date, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.ToAddresses, err = decodeList(to); err != nil {
		return nil, err
	}
	return &m, nil
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal list")
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal list")
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
