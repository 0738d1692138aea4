package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/events"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
	"github.com/rjardine/newsroute/internal/store"
)

// SchemeStore is the scheme persistence the API needs.
type SchemeStore interface {
	SaveScheme(ctx context.Context, scheme *model.RoutingScheme) error
	GetScheme(ctx context.Context, id string) (*model.RoutingScheme, error)
	ListSchemes(ctx context.Context) ([]*model.RoutingScheme, error)
	DeleteScheme(ctx context.Context, id string) error
}

// ProviderStore is the provider persistence the API needs.
type ProviderStore interface {
	UpsertProvider(ctx context.Context, p *model.IngestProvider) error
	GetProvider(ctx context.Context, id string) (*model.IngestProvider, error)
	ListProviders(ctx context.Context) ([]*model.IngestProvider, error)
}

// ItemRouter runs the automatic routing pipeline for one arrived item.
type ItemRouter interface {
	Route(ctx context.Context, provider *model.IngestProvider, item *model.Item, arrived time.Time) ([]dispatch.ActionResult, error)
}

// AuditReader reads the routed-item log.
type AuditReader interface {
	RecentItemLog(ctx context.Context, limit int) ([]store.ItemLogEntry, error)
	ItemHistory(ctx context.Context, guid string) ([]store.ItemLogEntry, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
	APIKey string
}

// Server is the HTTP control surface: scheme CRUD, provider status, routing
// dry-runs, the audit log, and an SSE event stream.
type Server struct {
	config    Config
	schemes   SchemeStore
	providers ProviderStore
	audits    AuditReader
	matcher   *routing.Matcher
	router    ItemRouter
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
	now       func() time.Time
}

func New(config Config, schemes SchemeStore, providers ProviderStore, audits AuditReader, matcher *routing.Matcher, router ItemRouter, hub *events.Hub, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		schemes:   schemes,
		providers: providers,
		audits:    audits,
		matcher:   matcher,
		router:    router,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/schemes", s.handleListSchemes)
		r.Post("/schemes", s.handleSaveScheme)
		r.Get("/schemes/{schemeID}", s.handleGetScheme)
		r.Delete("/schemes/{schemeID}", s.handleDeleteScheme)

		r.Get("/providers", s.handleListProviders)
		r.Post("/providers", s.handleUpsertProvider)

		r.Post("/route/test", s.handleRouteTest)
		r.Post("/ingest/{providerID}", s.handleIngest)

		r.Get("/items/log", s.handleRecentLog)
		r.Get("/items/{guid}/log", s.handleItemHistory)

		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
