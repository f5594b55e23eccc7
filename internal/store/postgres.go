package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jobtrack/internal/db"
	"github.com/sells-group/jobtrack/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgCompareAndSetSQL = `UPDATE job_postings SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4 AND status = $5`
	pgGetPostingSQL    = `SELECT ` + postingColumns + ` FROM job_postings WHERE user_id = $1 AND id = $2`
	pgAdvanceSQL       = `UPDATE tracker_entries
		SET last_event_id = $1, last_event_title = $2, last_event_date = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
		  AND (last_event_date IS NULL OR last_event_date < $3
		       OR (last_event_id = $1 AND (last_event_date <> $3 OR last_event_title <> $2)))`
)

// preparedStatements lists queries to prepare on each new connection. These
// run once per reconciled item.
var preparedStatements = map[string]string{
	"compare_and_set_status": pgCompareAndSetSQL,
	"get_posting":            pgGetPostingSQL,
	"advance_tracker":        pgAdvanceSQL,
}

var (
	pgInsertCompanySQL = db.MustInsertIfAbsentSQL(db.InsertConfig{Table: "companies", Columns: columnList(companyColumns)})
	pgInsertContactSQL = db.MustInsertIfAbsentSQL(db.InsertConfig{Table: "contacts", Columns: columnList(contactColumns)})
	pgInsertPostingSQL = db.MustInsertIfAbsentSQL(db.InsertConfig{Table: "job_postings", Columns: columnList(postingColumns)})
	pgInsertTrackerSQL = db.MustInsertIfAbsentSQL(db.InsertConfig{Table: "tracker_entries", Columns: columnList(trackerColumns)})
	pgInsertEventSQL   = db.MustInsertIfAbsentSQL(db.InsertConfig{Table: "calendar_events", Columns: columnList(eventColumns)})
	pgInsertMessageSQL = db.MustInsertIfAbsentSQL(db.InsertConfig{Table: "messages", Columns: columnList(messageColumns)})
)

// errContactExists rolls back a contact insert that lost to an existing row.
var errContactExists = eris.New("contact exists")

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	company_id TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL,
	position   TEXT NOT NULL DEFAULT '',
	is_primary BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS job_postings (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	company_id TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'interested',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracker_entries (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	job_posting_id   TEXT NOT NULL UNIQUE,
	company_id       TEXT NOT NULL,
	last_event_id    TEXT NOT NULL DEFAULT '',
	last_event_title TEXT NOT NULL DEFAULT '',
	last_event_date  TIMESTAMPTZ,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS calendar_events (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	external_id     TEXT NOT NULL,
	company_id      TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	start_time      TIMESTAMPTZ NOT NULL,
	end_time        TIMESTAMPTZ NOT NULL,
	event_type      TEXT NOT NULL,
	provider_status TEXT NOT NULL DEFAULT 'confirmed',
	attendees       TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
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
	to_addresses       TEXT[] NOT NULL DEFAULT '{}',
	message_type       TEXT NOT NULL,
	sent_at            TIMESTAMPTZ NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id      TEXT NOT NULL,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	result       JSONB,
	error        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_companies_user ON companies(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_user_email ON contacts(user_id, email);
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_primary ON contacts(user_id, company_id)
	WHERE is_primary AND company_id <> '';
CREATE INDEX IF NOT EXISTS idx_job_postings_company ON job_postings(user_id, company_id);
CREATE INDEX IF NOT EXISTS idx_tracker_entries_user ON tracker_entries(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_calendar_events_external ON calendar_events(user_id, external_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_external ON messages(user_id, external_id);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(user_id, thread_id);
CREATE INDEX IF NOT EXISTS idx_sync_runs_user ON sync_runs(user_id, started_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Companies and contacts

func (s *PostgresStore) ListCompanies(ctx context.Context, userID string) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) GetCompany(ctx context.Context, userID, id string) (*model.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE user_id = $1 AND id = $2`, userID, id))
	if isNoRows(err) {
		return nil, nil
	}
	return c, eris.Wrapf(err, "postgres: get company %s", id)
}

func (s *PostgresStore) InsertCompany(ctx context.Context, c *model.Company) (bool, error) {
	stampCreated(&c.CreatedAt, &c.UpdatedAt)
	tag, err := s.pool.Exec(ctx, pgInsertCompanySQL,
		c.ID, c.UserID, c.Name, c.Domain, c.Location, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert company %s", c.ID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, userID string) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.CompanyID, &c.Name, &c.Email, &c.Position, &c.Primary, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) InsertContact(ctx context.Context, c *model.Contact) (bool, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if c.Primary && c.CompanyID != "" {
			if _, err := tx.Exec(ctx,
				`UPDATE contacts SET is_primary = false WHERE user_id = $1 AND company_id = $2 AND id <> $3`,
				c.UserID, c.CompanyID, c.ID,
			); err != nil {
				return eris.Wrapf(err, "postgres: clear primary contact for %s", c.CompanyID)
			}
		}
		tag, err := tx.Exec(ctx, pgInsertContactSQL,
			c.ID, c.UserID, c.CompanyID, c.Name, c.Email, c.Position, c.Primary, c.CreatedAt)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert contact %s", c.ID)
		}
		if tag.RowsAffected() == 0 {
			return errContactExists
		}
		return nil
	})
	if err == errContactExists {
		return false, nil
	}
	return err == nil, err
}

// Postings

func (s *PostgresStore) ListPostingsByCompany(ctx context.Context, userID, companyID string) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE user_id = $1 AND company_id = $2 ORDER BY created_at, id`,
		userID, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list postings for %s", companyID)
	}
	defer rows.Close()

	var out []model.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan posting")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list postings iterate")
}

func (s *PostgresStore) GetPosting(ctx context.Context, userID, id string) (*model.JobPosting, error) {
	p, err := scanPosting(s.pool.QueryRow(ctx, pgGetPostingSQL, userID, id))
	if isNoRows(err) {
		return nil, nil
	}
	return p, eris.Wrapf(err, "postgres: get posting %s", id)
}

func (s *PostgresStore) CompareAndSetStatus(ctx context.Context, userID, id string, from, to model.JobStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, pgCompareAndSetSQL,
		string(to), time.Now().UTC(), id, userID, string(from))
	if err != nil {
		return false, eris.Wrapf(err, "postgres: compare and set status %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SetPostingStatus(ctx context.Context, userID, id string, status model.JobStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		string(status), time.Now().UTC(), id, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("posting not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateApplication(ctx context.Context, p *model.JobPosting, e *model.TrackerEntry) (bool, error) {
	stampCreated(&p.CreatedAt, &p.UpdatedAt)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = p.UpdatedAt
	}

	var created bool
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, pgInsertPostingSQL,
			p.ID, p.UserID, p.CompanyID, p.Title, string(p.Status), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert posting %s", p.ID)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, pgInsertTrackerSQL,
			e.ID, e.UserID, e.JobPostingID, e.CompanyID, e.LastEventID, e.LastEventTitle, e.LastEventDate, e.UpdatedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert tracker entry %s", e.ID)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Tracker

func (s *PostgresStore) ListTrackerEntries(ctx context.Context, userID string) ([]model.TrackerEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+trackerColumns+` FROM tracker_entries WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tracker entries")
	}
	defer rows.Close()

	var out []model.TrackerEntry
	for rows.Next() {
		var e model.TrackerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.JobPostingID, &e.CompanyID,
			&e.LastEventID, &e.LastEventTitle, &e.LastEventDate, &e.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tracker entry")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list tracker entries iterate")
}

func (s *PostgresStore) AdvanceTrackerLastEvent(ctx context.Context, userID, entryID string, ev model.EventRef) (bool, error) {
	tag, err := s.pool.Exec(ctx, pgAdvanceSQL,
		ev.ID, ev.Title, ev.Date.UTC(), time.Now().UTC(), entryID, userID)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: advance tracker entry %s", entryID)
	}
	return tag.RowsAffected() > 0, nil
}

// Calendar events

func (s *PostgresStore) GetCalendarEventByExternalID(ctx context.Context, userID, externalID string) (*model.CalendarEvent, error) {
	e, err := scanPostgresEvent(s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE user_id = $1 AND external_id = $2`, userID, externalID))
	if isNoRows(err) {
		return nil, nil
	}
	return e, eris.Wrapf(err, "postgres: get calendar event %s", externalID)
}

func (s *PostgresStore) InsertCalendarEvent(ctx context.Context, e *model.CalendarEvent) (bool, error) {
	stampCreated(&e.CreatedAt, &e.UpdatedAt)
	tag, err := s.pool.Exec(ctx, pgInsertEventSQL,
		e.ID, e.UserID, e.ExternalID, e.CompanyID, e.Title, e.Description,
		e.StartTime.UTC(), e.EndTime.UTC(), string(e.EventType), string(e.ProviderStatus), nonNil(e.Attendees),
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert calendar event %s", e.ExternalID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateCalendarEvent(ctx context.Context, e *model.CalendarEvent) error {
	e.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE calendar_events SET company_id = $1, title = $2, description = $3, start_time = $4, end_time = $5,
		 event_type = $6, provider_status = $7, attendees = $8, updated_at = $9
		 WHERE id = $10 AND user_id = $11`,
		e.CompanyID, e.Title, e.Description, e.StartTime.UTC(), e.EndTime.UTC(),
		string(e.EventType), string(e.ProviderStatus), nonNil(e.Attendees), e.UpdatedAt,
		e.ID, e.UserID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update calendar event %s", e.ExternalID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("calendar event not found: %s", e.ID)
	}
	return nil
}

func (s *PostgresStore) ListCalendarEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE user_id = $1 ORDER BY start_time, external_id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list calendar events")
	}
	defer rows.Close()

	var out []model.CalendarEvent
	for rows.Next() {
		e, err := scanPostgresEvent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan calendar event")
		}
		out = append(out, *e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list calendar events iterate")
}

// Messages

func (s *PostgresStore) GetMessageByExternalID(ctx context.Context, userID, externalID string) (*model.Message, error) {
	m, err := scanPostgresMessage(s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE user_id = $1 AND external_id = $2`, userID, externalID))
	if isNoRows(err) {
		return nil, nil
	}
	return m, eris.Wrapf(err, "postgres: get message %s", externalID)
}

func (s *PostgresStore) InsertMessage(ctx context.Context, m *model.Message) (bool, error) {
	stampCreated(&m.CreatedAt, &m.UpdatedAt)
	tag, err := s.pool.Exec(ctx, pgInsertMessageSQL,
		m.ID, m.UserID, m.ExternalID, m.ThreadExternalID, m.ThreadID, m.CompanyID,
		m.Subject, m.FromAddress, nonNil(m.ToAddresses), string(m.MessageType), m.Date.UTC(),
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert message %s", m.ExternalID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateMessage(ctx context.Context, m *model.Message) error {
	m.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET thread_external_id = $1, thread_id = $2, company_id = $3, subject = $4,
		 from_address = $5, to_addresses = $6, message_type = $7, sent_at = $8, updated_at = $9
		 WHERE id = $10 AND user_id = $11`,
		m.ThreadExternalID, m.ThreadID, m.CompanyID, m.Subject,
		m.FromAddress, nonNil(m.ToAddresses), string(m.MessageType), m.Date.UTC(), m.UpdatedAt,
		m.ID, m.UserID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update message %s", m.ExternalID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("message not found: %s", m.ID)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE user_id = $1 ORDER BY sent_at, external_id`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list messages")
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		m, err := scanPostgresMessage(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan message")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list messages iterate")
}

// Sync-run log

func (s *PostgresStore) StartSyncRun(ctx context.Context, userID string, kind model.SyncKind) (*model.SyncRun, error) {
	run := &model.SyncRun{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Status:    model.SyncRunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_runs (id, user_id, kind, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.UserID, string(run.Kind), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: start sync run for %s", userID)
	}
	return run, nil
}

func (s *PostgresStore) CompleteSyncRun(ctx context.Context, id string, result *model.SyncResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sync result")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sync_runs SET status = $1, completed_at = now(), result = $2 WHERE id = $3`,
		string(model.SyncRunComplete), resultJSON, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete sync run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("sync run not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) FailSyncRun(ctx context.Context, id string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sync_runs SET status = $1, completed_at = now(), error = $2 WHERE id = $3`,
		string(model.SyncRunFailed), errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail sync run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("sync run not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListSyncRuns(ctx context.Context, userID string, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = defaultSyncRunLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, kind, status, started_at, completed_at, result, error
		 FROM sync_runs WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sync runs")
	}
	defer rows.Close()

	var out []model.SyncRun
	for rows.Next() {
		var r model.SyncRun
		var resultNull *[]byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Kind, &r.Status, &r.StartedAt, &r.CompletedAt, &resultNull, &r.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sync run")
		}
		if resultNull != nil {
			r.Result = &model.SyncResult{}
			if err := json.Unmarshal(*resultNull, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal sync result")
			}
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sync runs iterate")
}

func scanPostgresEvent(row scannable) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	if err := row.Scan(&e.ID, &e.UserID, &e.ExternalID, &e.CompanyID, &e.Title, &e.Description,
		&e.StartTime, &e.EndTime, &e.EventType, &e.ProviderStatus, &e.Attendees, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if len(e.Attendees) == 0 {
		e.Attendees = nil
	}
	return &e, nil
}

func scanPostgresMessage(row scannable) (*model.Message, error) {
	var m model.Message
	if err := row.Scan(&m.ID, &m.UserID, &m.ExternalID, &m.ThreadExternalID, &m.ThreadID, &m.CompanyID,
		&m.Subject, &m.FromAddress, &m.ToAddresses, &m.MessageType, &m.Date, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if len(m.ToAddresses) == 0 {
		m.ToAddresses = nil
	}
	return &m, nil
}

func columnList(cols string) []string {
	return strings.Split(cols, ", ")
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
