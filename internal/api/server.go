package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/mentor-engine/internal/assist"
	"github.com/terra-clan/mentor-engine/internal/auth"
	"github.com/terra-clan/mentor-engine/internal/config"
	"github.com/terra-clan/mentor-engine/internal/health"
	"github.com/terra-clan/mentor-engine/internal/sandbox"
	"github.com/terra-clan/mentor-engine/internal/tutor"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	tutorService   tutor.Service
	assistService  assist.Service
	sandboxService sandbox.Service
	health         *health.Registry
	events         EventSource
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server. events may be nil, in which case
// the queue watch endpoint reports unavailable.
func NewServer(
	cfg config.ServerConfig,
	verifier auth.Verifier,
	tutorSvc tutor.Service,
	assistSvc assist.Service,
	sandboxSvc sandbox.Service,
	healthReg *health.Registry,
	events EventSource,
) *Server {
	s := &Server{
		config:         cfg,
		tutorService:   tutorSvc,
		assistService:  assistSvc,
		sandboxService: sandboxSvc,
		health:         healthReg,
		events:         events,
		authMiddleware: NewAuthMiddleware(verifier),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (bearer credential required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Route("/tutor", func(r chi.Router) {
			r.Post("/ask", s.handleTutorAsk)
			r.Post("/get-snippet", s.handleGetSnippet)
		})

		r.Route("/sandbox", func(r chi.Router) {
			r.Post("/submit", s.handleSandboxSubmit)
		})

		r.Route("/assist", func(r chi.Router) {
			r.Post("/request", s.handleAssistRequest)
			r.Get("/queue", s.handleAssistQueue)
			r.Post("/claim/{assist_id}", s.handleAssistClaim)
			r.Get("/watch", s.handleQueueWatch)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
