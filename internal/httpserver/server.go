package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/domain"
)

// defaultAnalyzeTimeout bounds a single blocking analyze request.
const defaultAnalyzeTimeout = 2 * time.Minute

// Analyzer runs the sentiment pipeline. *domain.Ingestor satisfies it.
type Analyzer interface {
	RunWithProgress(ctx context.Context, query string, limit int, progress domain.ProgressFunc) (*domain.Analysis, error)
}

// Notifier is told about every completed analysis.
type Notifier interface {
	AnalysisCompleted(ctx context.Context, a *domain.Analysis) error
}

// Server is the HTTP server that exposes the analysis API.
type Server struct {
	cfg        *config.Config
	analyzer   Analyzer
	notifier   Notifier
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	handler    http.Handler
	httpServer *http.Server

	analyzeTimeout time.Duration
}

// NewServer creates a new HTTP server. notifier may be nil.
func NewServer(cfg *config.Config, analyzer Analyzer, notifier Notifier, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		notifier: notifier,
		logger:   logger,

		analyzeTimeout: defaultAnalyzeTimeout,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(func(next http.Handler) http.Handler { return withLogging(logger, next) })
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/analyze", s.handleAnalyze)
		r.Get("/analyze/ws", s.handleAnalyzeWS)
	})

	s.handler = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: defaultAnalyzeTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// notify hands a completed analysis to the notifier. Failures are logged and
// otherwise ignored.
func (s *Server) notify(ctx context.Context, a *domain.Analysis) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.AnalysisCompleted(context.WithoutCancel(ctx), a); err != nil {
		s.logger.Warn("failed to publish analysis event", "analysis_id", a.ID, "error", err)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// errorStatus maps a pipeline error to an HTTP status and error type.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, "InvalidRequest", "q parameter is required"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout", "analysis timed out"
	case errors.Is(err, domain.ErrSearchFailed):
		return http.StatusBadGateway, "SearchFailed", "failed to search posts"
	default:
		return http.StatusInternalServerError, "InternalError", "failed to analyze posts"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
