package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/logging"
)

// Service is the application surface the server exposes.
type Service interface {
	ConfigureAll(configs map[string]core.UserConfig)
	Execute(ctx context.Context, req core.GenerationRequest) core.Outcome
	SessionMemory(sessionID string) ([]core.GenerationRecord, error)
	LongTermMemory(ctx context.Context) ([]core.GenerationRecord, error)
}

// Options configure a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64
	Metrics      *Metrics
	Logger       logging.Logger
}

// Server is the HTTP front end of a Service.
type Server struct {
	svc    Service
	opts   Options
	router *chi.Mux
}

// New creates a Server and mounts its routes.
func New(svc Service, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    15 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    1 << 20,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics("genmesh")
	}

	s := &Server{svc: svc, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(s.observe)

	router.Post("/config", s.handleConfig)
	router.Post("/execute", s.handleExecute)
	router.Get("/memory", s.handleLongTermMemory)
	router.Get("/sessions/{sessionID}/memory", s.handleSessionMemory)
	router.Get("/healthz", s.handleHealthz)
	router.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())

	return router
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("Serving HTTP", "addr", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.opts.Logger.Info("Shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.opts.Metrics.RecordHTTPRequest(r.Method, route, status)
		s.opts.Logger.Debug("HTTP request",
			"method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}
