// Package api serves the zone, load and goal reports over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fitinsight/internal/analysis"
	"fitinsight/internal/goals"
	"fitinsight/internal/service"
	"fitinsight/internal/store"
)

// Service is the report surface the handlers call
type Service interface {
	GetZoneAnalysis(ctx context.Context, userID int64) (*analysis.ZoneAnalysisResult, error)
	CustomZoneAnalysis(ctx context.Context, userID int64, req service.ZoneRequest) (*analysis.ZoneAnalysisResult, error)
	GetLoadSummary(ctx context.Context, userID int64) (*service.LoadSummary, error)
	RecalculateLoads(ctx context.Context, userID int64) (int, error)
	GetSession(ctx context.Context, userID, sessionID int64) (*service.SessionWithLoad, error)
	DeleteSession(ctx context.Context, userID, sessionID int64) error
	GetGoalAnalytics(ctx context.Context, userID int64) (*goals.Analytics, error)
	GetGoalRecommendations(ctx context.Context, userID int64) ([]goals.DashboardRecommendation, error)
	GetGoalInsights(ctx context.Context, goalID string) (*goals.Insight, error)
	ListGoalInsights(ctx context.Context, userID int64) ([]service.GoalWithInsight, error)
	CreateGoal(ctx context.Context, userID int64, req service.GoalRequest) (*store.Goal, error)
	LogProgress(ctx context.Context, goalID string, req service.ProgressRequest) (*store.Goal, error)
	RecalculateAllProgress(ctx context.Context, userID int64) (int, error)
}

// Config holds configuration for the API server.
type Config struct {
	Addr           string
	Service        Service
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	addr       string
	service    Service
	logger     *slog.Logger
	timeout    time.Duration
}

// NewServer creates a new API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	s := &Server{
		router:  chi.NewRouter(),
		addr:    cfg.Addr,
		service: cfg.Service,
		logger:  cfg.Logger,
		timeout: cfg.RequestTimeout,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.timeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	s.router.Use(middleware.AllowContentType("application/json"))
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(shutdownCtx)
}
