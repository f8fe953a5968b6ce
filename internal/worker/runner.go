// Package worker drives periodic Drive syncs and reacts to workflow events.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
	"github.com/kirillkom/hr-onboarding/internal/observability/metrics"
)

const eventSyncTimeout = 2 * time.Minute

type Runner struct {
	syncer   ports.DriveSyncer
	metrics  *metrics.WorkerMetrics
	interval time.Duration
	now      func() time.Time
}

func NewRunner(syncer ports.DriveSyncer, workerMetrics *metrics.WorkerMetrics, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Runner{
		syncer:   syncer,
		metrics:  workerMetrics,
		interval: interval,
		now:      time.Now,
	}
}

// RunSyncLoop runs one pass immediately and then one per interval until ctx is done.
func (r *Runner) RunSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.SyncOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) SyncOnce(ctx context.Context) ports.SyncReport {
	if r.metrics != nil {
		r.metrics.StartSync()
	}
	start := time.Now()
	report, err := r.syncer.SyncAll(ctx)
	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.FinishSync(elapsed, report.Synced, report.Failed, report.Skipped, err)
	}

	if err != nil {
		slog.Error("sync_pass_failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return report
	}
	slog.Info("sync_pass_finished",
		"scanned", report.Scanned,
		"synced", report.Synced,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration_ms", elapsed.Milliseconds(),
	)
	return report
}

// HandleEvent syncs a freshly created candidate so its checklist is
// populated before the first dashboard visit. Other kinds are only counted.
func (r *Runner) HandleEvent(ctx context.Context, event domain.WorkflowEvent) error {
	var err error
	if event.Kind == domain.EventCandidateCreated {
		syncCtx, cancel := context.WithTimeout(ctx, eventSyncTimeout)
		_, err = r.syncer.SyncDrive(syncCtx, event.CandidateID)
		cancel()
		if domain.IsKind(err, domain.ErrInvalidInput) {
			// No usable folder on record; redelivering the event cannot fix that.
			slog.Info("candidate_sync_deferred", "candidate_id", event.CandidateID, "reason", err.Error())
			err = nil
		}
	}

	if r.metrics != nil {
		lag := time.Duration(-1)
		if !event.OccurredAt.IsZero() {
			lag = r.now().Sub(event.OccurredAt)
		}
		r.metrics.ObserveEvent(string(event.Kind), lag, err)
	}
	return err
}
