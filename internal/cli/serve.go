package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/handlers"
	"github.com/Hexix23/webhook-catcher-workers/internal/server"
	"github.com/Hexix23/webhook-catcher-workers/internal/service"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept webhooks and serve the event API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			logging.SetDefault(a.logger)

			ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return a.serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

// serve runs the HTTP server on ln until ctx is cancelled, then shuts it
// down gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("starting webhook catcher",
		"addr", ln.Addr().String(),
		logging.Backend(cfg.Storage.Backend),
		"log_level", cfg.Logging.Level,
		"retention", cfg.Retention.TTL().String(),
	)

	b, err := a.openBackend(ctx, cfg, logger)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close store", logging.Error(err))
		}
	}()

	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()

	limiter := newRateLimiter(cfg, b, logger)
	defer limiter.Close()

	allowlist := cfg.Namespaces.Allowlist()
	if len(allowlist) > 0 {
		logger.Info("namespace allowlist active", logging.Count(len(allowlist)))
	}

	svc := service.New(b.Store, service.Options{
		Allowlist: allowlist,
		Retention: cfg.Retention.TTL(),
		Notifier:  notifier,
		Logger:    logger,
	})
	handler := handlers.NewWebhookHandler(svc, b.Store, limiter, logger, cfg.Ingestion.MaxEventSize)
	router := server.NewRouter(handler, cfg.Auth.APIToken)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if b.Sweeper != nil && cfg.Reaper.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.RunSweeps(ctx, b.Sweeper, cfg.Reaper.Interval, logger.Logger)
		}()
		logger.Info("expiry sweeper started", "interval", cfg.Reaper.Interval.String())
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("webhook catcher listening", "addr", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		cancel()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)
	cancel()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
