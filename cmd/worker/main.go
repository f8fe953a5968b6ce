package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/hr-onboarding/internal/bootstrap"
	"github.com/kirillkom/hr-onboarding/internal/config"
	"github.com/kirillkom/hr-onboarding/internal/observability/logging"
	"github.com/kirillkom/hr-onboarding/internal/observability/metrics"
	"github.com/kirillkom/hr-onboarding/internal/worker"
)

func main() {
	cfg := config.Load()
	logging.Install("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	runner := worker.NewRunner(app.VerificationUC, workerMetrics, cfg.SyncInterval())

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("worker_sync_loop_started", "interval", cfg.SyncInterval().String())
		runner.RunSyncLoop(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("worker_subscribed", "subject", cfg.NATSSubject+".>")
		return app.Queue.SubscribeEvents(gctx, runner.HandleEvent)
	})

	if err := g.Wait(); err != nil {
		slog.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}
