package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/clients/analytics"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/config"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/database"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/events"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/feed"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/ideas"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/trend"
)

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	DB      *database.DB
	Config  *config.Config
	DevMode bool

	Ideas        *ideas.Handler
	Telegram     *telegram.Handler
	TelegramRepo *telegram.Repository
	Feed         *feed.Handler
	Trend        *trend.Handler
	Events       *events.Manager
	Analytics    *analytics.Client
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	db     *database.DB
	cfg    *config.Config

	ideas        *ideas.Handler
	telegram     *telegram.Handler
	telegramRepo *telegram.Repository
	feed         *feed.Handler
	trend        *trend.Handler
	events       *events.Manager
	analytics    *analytics.Client
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		db:           cfg.DB,
		cfg:          cfg.Config,
		ideas:        cfg.Ideas,
		telegram:     cfg.Telegram,
		telegramRepo: cfg.TelegramRepo,
		feed:         cfg.Feed,
		trend:        cfg.Trend,
		events:       cfg.Events,
		analytics:    cfg.Analytics,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// Event stream
	s.router.Get("/ws/events", s.handleEventStream)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/ideas", s.ideas.IdeaRoutes)
		r.Route("/positions", s.ideas.PositionRoutes)
		r.Route("/telegram", s.telegram.Routes)
		r.Route("/feed", s.feed.Routes)
		s.trend.Routes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
