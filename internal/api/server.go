// Package api exposes the ingest engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/company"
	"github.com/sells-group/jobtrack/internal/config"
	"github.com/sells-group/jobtrack/internal/ingest"
	"github.com/sells-group/jobtrack/internal/model"
	"github.com/sells-group/jobtrack/internal/reconcile"
	"github.com/sells-group/jobtrack/internal/tracker"
)

const defaultRequestTimeout = 60 * time.Second

// Service is the engine surface served over HTTP. *ingest.Engine
// implements it.
type Service interface {
	SyncCalendar(ctx context.Context, req ingest.SyncRequest) (model.SyncResult, error)
	SyncMessages(ctx context.Context, req ingest.SyncRequest) (model.SyncResult, error)
	IngestMessage(ctx context.Context, userID, userEmail string, item model.MailItem) (ingest.IngestResult, error)
	ResolveCompany(ctx context.Context, userID, userEmail string, sig company.Signals) (company.Match, bool, error)
	ReconcileStatus(ctx context.Context, userID, companyID string, cands []reconcile.Candidate) (reconcile.Result, error)
	SetStatus(ctx context.Context, userID, companyID string, status model.JobStatus) (reconcile.Result, error)
	SyncTracker(ctx context.Context, userID string) (tracker.Report, error)
	SyncRuns(ctx context.Context, userID string, limit int) ([]model.SyncRun, error)
}

var _ Service = (*ingest.Engine)(nil)

// Server routes HTTP requests to a Service.
type Server struct {
	svc     Service
	timeout time.Duration
	origins []string
}

// New creates a Server.
func New(svc Service, cfg config.ServerConfig) *Server {
	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{svc: svc, timeout: timeout, origins: origins}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestLogger)
	r.Use(s.withTimeout)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/classify/event", s.classifyEvent)
		r.Post("/classify/message", s.classifyMessage)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/sync/calendar", s.syncCalendar)
			r.Post("/sync/messages", s.syncMessages)
			r.Post("/messages", s.ingestMessage)
			r.Post("/resolve", s.resolve)
			r.Post("/companies/{companyID}/reconcile", s.reconcileStatus)
			r.Put("/companies/{companyID}/status", s.setStatus)
			r.Post("/tracker/sync", s.syncTracker)
			r.Get("/sync-runs", s.syncRuns)
		})
	})
	return r
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
