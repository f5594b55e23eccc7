package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/jobtrack/internal/classify"
	"github.com/sells-group/jobtrack/internal/company"
	"github.com/sells-group/jobtrack/internal/ingest"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/reconcile"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type syncBody struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	UserEmail string    `json:"user_email"`
}

func (s *Server) syncRequest(r *http.Request) (ingest.SyncRequest, error) {
	var body syncBody
	if err := decodeJSON(r, &body); err != nil {
		return ingest.SyncRequest{}, err
	}
	return ingest.SyncRequest{
		UserID:    chi.URLParam(r, "userID"),
		UserEmail: body.UserEmail,
		Range:     model.DateRange{From: body.From, To: body.To},
	}, nil
}

func (s *Server) syncCalendar(w http.ResponseWriter, r *http.Request) {
	req, err := s.syncRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.SyncCalendar(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) syncMessages(w http.ResponseWriter, r *http.Request) {
	req, err := s.syncRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.SyncMessages(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) ingestMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		model.MailItem
		UserEmail string `json:"user_email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.svc.IngestMessage(r.Context(), chi.URLParam(r, "userID"), body.UserEmail, body.MailItem)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Emails    []string `json:"emails"`
		Text      string   `json:"text"`
		UserEmail string   `json:"user_email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	m, ok, err := s.svc.ResolveCompany(r.Context(), chi.URLParam(r, "userID"), body.UserEmail,
		company.Signals{Emails: body.Emails, Text: body.Text})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"resolved": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resolved":   true,
		"company_id": m.CompanyID,
		"name":       m.Name,
		"method":     m.Method,
	})
}

func (s *Server) classifyEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	t := classify.ClassifyEvent(body.Title, body.Description)
	out := map[string]any{"event_type": t}
	if st, ok := reconcile.InferEvent(t); ok {
		out["status"] = st
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) classifyMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
		From    string `json:"from"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	t := classify.ClassifyMessage(body.Subject, body.Body, body.From)
	out := map[string]any{"message_type": t}
	if st, ok := reconcile.InferMessage(t); ok {
		out["status"] = st
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reconcileStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Candidates []reconcile.Candidate `json:"candidates"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.ReconcileStatus(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "companyID"), body.Candidates)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.JobStatus `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.SetStatus(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "companyID"), body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) syncTracker(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.SyncTracker(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) syncRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, badRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxRunsLimit)
	}
	runs, err := s.svc.SyncRuns(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.SyncRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
