package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rhuss/mockauth/pkg/auth"
	"github.com/rhuss/mockauth/pkg/config"
	"github.com/rhuss/mockauth/pkg/observability"
	"github.com/rhuss/mockauth/pkg/transport"
)

// AdminAuthorities grant access to GET /admin.
var AdminAuthorities = []string{"SCOPE_admin", "ROLE_ADMIN"}

// Server is the sample protected API.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	handler  http.Handler
	pipeline *pipeline
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	authenticators []auth.Authenticator
}

// WithLogger sets the logger for request logs and lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAuthenticator appends a to the configured auth chain.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(o *options) { o.authenticators = append(o.authenticators, a) }
}

// New builds the server for cfg. Close releases the pipeline's resources.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	p, err := buildPipeline(cfg.Auth, cfg.Fixtures, o.authenticators)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	if cfg.Observability.Metrics.Enabled {
		r.Handle(cfg.Observability.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/whoami", handleWhoAmI).Methods(http.MethodGet)
	r.Handle("/admin", auth.RequireAuthority(AdminAuthorities...)(http.HandlerFunc(handleWhoAmI))).
		Methods(http.MethodGet)

	stack := transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(o.logger),
		observability.MetricsMiddleware,
		auth.Middleware(p.chain, p.limiter, cfg.Auth.BypassEndpoints),
	)

	return &Server{
		cfg:      cfg,
		logger:   o.logger,
		handler:  stack(r),
		pipeline: p,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Close releases the auth pipeline's resources.
func (s *Server) Close() { s.pipeline.close() }

// Run serves on the configured port until ctx is cancelled, then shuts
// down gracefully within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "port", s.cfg.Server.Port, "auth", s.cfg.Auth.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	}
}
