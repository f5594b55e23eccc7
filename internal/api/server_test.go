package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobtrack/internal/config"
	"github.com/sells-group/jobtrack/internal/ingest"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/provider"
	"github.com/sells-group/jobtrack/internal/store"
	"github.com/sells-group/jobtrack/internal/tracker"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func acmeEvents() []model.CalendarItem {
	return []model.CalendarItem{
		{
			ExternalID: "evt-1", Title: "Phone screen with Acme Corp",
			Start: time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC),
			AttendeeEmails: []string{"me@example.com", "jane@acme.com"},
		},
		{
			ExternalID: "evt-2", Title: "Acme Corp onsite",
			Start: time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 20, 19, 0, 0, 0, time.UTC),
			AttendeeEmails: []string{"me@example.com", "jane@acme.com"},
		},
	}
}

type fixture struct {
	store   *store.SQLiteStore
	handler http.Handler
}

func newFixture(t *testing.T, cal provider.CalendarProvider, mail provider.MailProvider, syncCfg config.SyncConfig) fixture {
	t.Helper()
	st := newTestStore(t)
	eng := ingest.New(st, cal, mail, syncCfg)
	srv := New(eng, config.ServerConfig{RequestTimeoutSecs: 5, CORSOrigins: []string{"https://app.example.com"}})
	return fixture{store: st, handler: srv.Handler()}
}

func (f fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

var syncWindow = map[string]any{
	"from":       "2025-01-01T00:00:00Z",
	"to":         "2025-02-01T00:00:00Z",
	"user_email": "me@example.com",
}

func staticCalendar(items ...model.CalendarItem) provider.CalendarProvider {
	return provider.CalendarFunc(func(context.Context, string, model.DateRange) ([]model.CalendarItem, error) {
		return items, nil
	})
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})
	rr := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestSyncCalendar(t *testing.T) {
	f := newFixture(t, staticCalendar(acmeEvents()...), nil, config.SyncConfig{})
	_, err := f.store.InsertCompany(context.Background(), &model.Company{ID: "co-acme", UserID: "u1", Name: "Acme Corp", Domain: "acme.com"})
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/v1/users/u1/sync/calendar", syncWindow)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := decode[model.SyncResult](t, rr)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.NewContacts)
	assert.Empty(t, res.Errors)

	rr = f.do(t, http.MethodGet, "/v1/users/u1/sync-runs?limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	runs := decode[map[string][]model.SyncRun](t, rr)["runs"]
	require.Len(t, runs, 1)
	assert.Equal(t, model.SyncKindCalendar, runs[0].Kind)
}

func TestSyncCalendar_AuthExpired(t *testing.T) {
	cal := provider.CalendarFunc(func(context.Context, string, model.DateRange) ([]model.CalendarItem, error) {
		return nil, eris.Wrap(provider.ErrAuthExpired, "calendar: token rejected")
	})
	f := newFixture(t, cal, nil, config.SyncConfig{})

	rr := f.do(t, http.MethodPost, "/v1/users/u1/sync/calendar", syncWindow)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "auth_expired", decode[errorBody](t, rr).Error)
}

func TestSyncCalendar_PageTooLarge(t *testing.T) {
	f := newFixture(t, staticCalendar(acmeEvents()...), nil, config.SyncConfig{MaxPageSize: 1})

	rr := f.do(t, http.MethodPost, "/v1/users/u1/sync/calendar", syncWindow)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "page_too_large", body.Error)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 1, body.Limit)
}

func TestSyncMessages_ProviderPageCap(t *testing.T) {
	mail := provider.MailFunc(func(context.Context, string, model.DateRange) ([]model.MailItem, error) {
		return nil, &provider.PageTooLargeError{Count: 300, Limit: 250}
	})
	f := newFixture(t, nil, mail, config.SyncConfig{})

	rr := f.do(t, http.MethodPost, "/v1/users/u1/sync/messages", syncWindow)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "page_too_large", body.Error)
	assert.Equal(t, 300, body.Count)
	assert.Equal(t, 250, body.Limit)
}

func TestSyncMessages_BadRequests(t *testing.T) {
	f := newFixture(t, nil, provider.MailFunc(func(context.Context, string, model.DateRange) ([]model.MailItem, error) {
		return nil, nil
	}), config.SyncConfig{})

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{not json"},
		{"missing range", map[string]string{"user_email": "me@example.com"}},
		{"inverted range", map[string]string{"from": "2025-02-01T00:00:00Z", "to": "2025-01-01T00:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/v1/users/u1/sync/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "invalid_request", decode[errorBody](t, rr).Error)
		})
	}
}

func TestIngestMessage(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})

	rr := f.do(t, http.MethodPost, "/v1/users/u1/messages", map[string]any{
		"external_id":  "m-1",
		"subject":      "Interview invitation",
		"body":         "We'd like to schedule an interview next week.",
		"from_address": "jane@globex.io",
		"to_addresses": []string{"me@example.com"},
		"date":         "2025-01-12T10:00:00Z",
		"user_email":   "me@example.com",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	out := decode[ingest.IngestResult](t, rr)
	assert.Equal(t, model.MessageInterviewScheduling, out.MessageType)
	assert.Equal(t, model.StatusInterviewing, out.Status)
	assert.True(t, out.Changed)
	assert.NotEmpty(t, out.CompanyID)
}

func TestResolve(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})
	_, err := f.store.InsertCompany(context.Background(), &model.Company{ID: "co-acme", UserID: "u1", Name: "Acme Corp", Domain: "acme.com"})
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/v1/users/u1/resolve", map[string]any{"emails": []string{"bob@acme.com"}})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, true, body["resolved"])
	assert.Equal(t, "co-acme", body["company_id"])

	rr = f.do(t, http.MethodPost, "/v1/users/u1/resolve", map[string]any{"emails": []string{"pal@gmail.com"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decode[map[string]any](t, rr)["resolved"])
}

func TestClassify(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})

	rr := f.do(t, http.MethodPost, "/v1/classify/event", map[string]string{"title": "Final round onsite"})
	require.Equal(t, http.StatusOK, rr.Code)
	ev := decode[map[string]string](t, rr)
	assert.Equal(t, "onsite", ev["event_type"])
	assert.Equal(t, "interviewing", ev["status"])

	rr = f.do(t, http.MethodPost, "/v1/classify/message", map[string]string{"subject": "Lunch", "body": "Tacos?", "from": "pal@gmail.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	msg := decode[map[string]string](t, rr)
	assert.Equal(t, "general", msg["message_type"])
	_, hasStatus := msg["status"]
	assert.False(t, hasStatus)
}

func TestReconcileAndSetStatus(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})

	rr := f.do(t, http.MethodPost, "/v1/users/u1/companies/co-1/reconcile", map[string]any{
		"candidates": []map[string]string{
			{"status": "interviewing", "at": "2025-01-10T00:00:00Z"},
			{"status": "applied", "at": "2025-01-02T00:00:00Z"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "interviewing", decode[map[string]any](t, rr)["final_status"])

	rr = f.do(t, http.MethodPut, "/v1/users/u1/companies/co-1/status", map[string]string{"status": "withdrew"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "withdrew", decode[map[string]any](t, rr)["final_status"])

	rr = f.do(t, http.MethodPut, "/v1/users/u1/companies/co-1/status", map[string]string{"status": "ghosted"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSyncRuns_InvalidLimit(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})
	rr := f.do(t, http.MethodGet, "/v1/users/u1/sync-runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/users/u1/sync-runs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[map[string][]model.SyncRun](t, rr)["runs"])
}

type failingTracker struct {
	Service
}

func (failingTracker) SyncTracker(context.Context, string) (tracker.Report, error) {
	return tracker.Report{}, eris.New("store: connection reset")
}

func TestUnexpectedErrorIs500(t *testing.T) {
	h := New(failingTracker{}, config.ServerConfig{}).Handler()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/tracker/sync", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "internal", body.Error)
	assert.NotContains(t, body.Message, "connection reset")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil, nil, config.SyncConfig{})
	req := httptest.NewRequest(http.MethodOptions, "/v1/users/u1/sync/calendar", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
