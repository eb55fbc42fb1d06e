package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/titrate"
	"github.com/aretw0/titrate/internal/presentation/tui"
	httpadapter "github.com/aretw0/titrate/pkg/adapters/http"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/observability"
	"github.com/aretw0/titrate/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the 'serve' command.
type ServeOptions struct {
	Options
	Addr string
	// Watch reloads the policy when its document changes.
	// Only document directories (--policy-dir) can be watched.
	Watch bool
	Out   io.Writer
}

// PolicyWatcher is a policy source that can report changes.
type PolicyWatcher interface {
	ports.PolicySource
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Service is a configured HTTP API, ready to be served.
type Service struct {
	API     *httpadapter.Server
	Metrics *observability.Metrics

	opts   Options
	source ports.PolicySource
	hooks  domain.Hooks
	logger *slog.Logger
	close  func() error
}

// NewService builds the HTTP API with metrics wired into the engine hooks.
func NewService(ctx context.Context, opts Options, logger *slog.Logger) (*Service, error) {
	src, closeSource, err := opts.openSource()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetricsWith(reg)

	svc := &Service{
		Metrics: metrics,
		opts:    opts,
		source:  src,
		hooks:   chainHooks(metrics.Hooks(), debugHooks(logger)),
		logger:  logger,
		close:   closeSource,
	}

	engine, err := svc.build(ctx)
	if err != nil {
		closeSource()
		return nil, err
	}
	svc.API, err = httpadapter.NewServer(engine,
		httpadapter.WithMetricsHandler(metrics.Handler()),
		httpadapter.WithLogger(logger),
	)
	if err != nil {
		closeSource()
		return nil, err
	}
	return svc, nil
}

func (s *Service) build(ctx context.Context) (*titrate.Engine, error) {
	return createEngine(ctx, s.opts, s.source, s.logger, s.hooks)
}

// Reload rebuilds the engine from the policy source and swaps it in.
// On failure the running engine is kept.
func (s *Service) Reload(ctx context.Context) error {
	engine, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.API.SetEngine(engine)
	return nil
}

// Close releases the policy source.
func (s *Service) Close() error {
	return s.close()
}

// WatchPolicy reloads the service on every change until ctx ends.
func (s *Service) WatchPolicy(ctx context.Context) error {
	w, ok := s.source.(PolicyWatcher)
	if !ok {
		return fmt.Errorf("policy source %T cannot be watched", s.source)
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go s.reloadOn(ctx, changes)
	return nil
}

func (s *Service) reloadOn(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := s.Reload(ctx); err != nil {
				s.logger.Error("Policy reload failed, keeping previous policy", "err", err)
				continue
			}
			s.logger.Info("Policy reloaded")
		}
	}
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger, err := opts.NewLogger()
	if err != nil {
		return err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	svc, err := NewService(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if opts.Watch {
		if err := svc.WatchPolicy(ctx); err != nil {
			return err
		}
	}

	if tui.IsTerminal(opts.Out) {
		tui.PrintBanner(opts.Out, titrate.Version)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           svc.API.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "Listening on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		cause := shutdownCause(ctx)
		logger.Info("Shutdown requested", "cause", cause)
		printSystemMessage(opts.Out, "Shutting down (%s)...", cause)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(opts.Out, "Server stopped gracefully")
		return nil
	}
}
