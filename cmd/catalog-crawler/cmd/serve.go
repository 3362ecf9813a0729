package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maltedev/catalog-crawler/internal/api"
	"github.com/maltedev/catalog-crawler/internal/crawler"
	"github.com/maltedev/catalog-crawler/internal/jobs"
	"github.com/maltedev/catalog-crawler/internal/models"
	"github.com/maltedev/catalog-crawler/internal/queue"
	"github.com/maltedev/catalog-crawler/internal/storage"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves an HTTP API that queues crawl runs and reports their progress.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		crawlCfg, err := crawlerConfig(cfg.Crawler)
		if err != nil {
			return err
		}
		open, err := newOpener(cfg.Browser)
		if err != nil {
			return err
		}

		sink, cleanup, err := openSinks(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		pacer := newPacer(cfg.Crawler)
		run := func(ctx context.Context, runID uuid.UUID, products models.Catalog) (*crawler.Report, error) {
			ctx = storage.WithRunID(ctx, runID)
			return crawler.RunSession(ctx, open, sink, crawlCfg, products,
				crawler.WithPacer(pacer),
				crawler.WithLogger(log.With("run_id", runID)))
		}

		q := queue.NewInMemoryQueue()
		defer q.Close()
		manager := jobs.NewManager(q, run, log)

		server := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      api.NewRouter(api.NewHandlers(manager, log), api.DefaultRouterOptions()),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}

		log.Info("server starting", "addr", server.Addr, "engine", cfg.Browser.Engine)
		return serveUntilDone(ctx, server, manager.StartWorker, cfg.Server.ShutdownTimeout, log)
	},
}

// serveUntilDone runs server and worker until ctx ends or the server fails.
// It then shuts the server down and waits for the worker to return, so an
// in-flight run releases its browser session before the sinks are closed.
func serveUntilDone(ctx context.Context, server *http.Server, worker func(context.Context), shutdownTimeout time.Duration, logger *slog.Logger) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker(workerCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			err = fmt.Errorf("server failed: %w", err)
		}
	}

	stopWorker()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Error("server shutdown failed", "error", serr)
	}

	<-workerDone
	logger.Info("server stopped")
	return err
}
