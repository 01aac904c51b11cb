package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finadvisor/internal/advisor"
	"finadvisor/internal/core"
	"finadvisor/internal/log"
	"finadvisor/internal/middleware/ratelimit"
	"finadvisor/internal/middleware/security"
	"finadvisor/internal/middleware/trace"

	"github.com/go-chi/chi/v5"
)

// AdviceService is what the handlers need from the service layer.
type AdviceService interface {
	Chat(ctx context.Context, message string, entries []core.ExpenditureEntry) (advisor.ChatResponse, error)
	AnalyzeExpenditure(ctx context.Context, entries []core.ExpenditureEntry) (advisor.ChatResponse, error)
	FullAnalysis(ctx context.Context, entries []core.ExpenditureEntry, userContext string) (advisor.ChatResponse, error)
	CompletionAvailable() bool
	EventsEnabled() bool
}

// Config holds the listener settings
type Config struct {
	Addr               string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	ReadHeaderTimeout  time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
}

// DefaultConfig returns defaults matching the environment configuration
func DefaultConfig() Config {
	return Config{
		Addr:               ":8000",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 60,
		ReadHeaderTimeout:  10 * time.Second,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       60 * time.Second,
		IdleTimeout:        120 * time.Second,
	}
}

type Server struct {
	http.Server
	service      AdviceService
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	logger       *log.Logger
	maxBodyBytes int64
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// Shutdown must be called to release the rate limiter.
func NewServer(cfg Config, service AdviceService, logger *log.Logger) *Server {
	def := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	resolver := security.NewClientIPResolver()
	rateLogger := logger.WithComponent(log.ComponentRateLimit)

	s := &Server{
		service: service,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			OnCleaned: func(removed int) {
				rateLogger.Debug("Rate limiter cleanup completed", "entries_removed", removed)
			},
		}),
		tracer:       trace.NewMiddleware(resolver.ClientIP),
		logger:       logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(log.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(recoverJSON(""))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Get("/readyz", s.handleReady)

	// Only the advice endpoints are throttled
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(resolver.ClientIP, s.onRateLimit))
		r.Post("/chat", s.handleChat)
		r.With(recoverJSON(analyzeErrorPrefix)).Post("/analyze-expenditure", s.handleAnalyzeExpenditure)
		r.With(recoverJSON(fullAnalysisErrorPrefix)).Post("/full-analysis", s.handleFullAnalysis)
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// Shutdown gracefully shuts down the server and the limiter cleanup goroutine
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters collected by the trace middleware
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
