// Package worker drives the earnings refresh: on a cron schedule, on AMQP
// request, and once at startup to catch up after downtime.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"paydash/internal/amqp"
	applog "paydash/internal/log"
	"paydash/internal/services"
)

type RefreshWorker struct {
	refresher  *services.RefreshService
	cron       *cron.Cron
	logger     *applog.Logger
	structured *applog.StructuredLogger
}

func NewRefreshWorker(refresher *services.RefreshService, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	return &RefreshWorker{
		refresher:  refresher,
		cron:       cron.New(),
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
	}
}

// HandleRefreshRequest processes one AMQP refresh request.
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequestMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh request",
		"reason", msg.Reason,
		"requested_at", msg.RequestedAt)

	err := w.refresher.Refresh(ctx)
	w.structured.LogRefreshCompleted(ctx, msg.Reason, err)
	return err
}

// StartupRefresh runs one refresh immediately so a worker that was down
// does not wait for the next scheduled slot. Failure is not fatal: the
// dashboard serves stale snapshots meanwhile.
func (w *RefreshWorker) StartupRefresh(ctx context.Context) error {
	err := w.refresher.Refresh(ctx)
	w.structured.LogRefreshCompleted(ctx, amqp.ReasonStartup, err)
	return err
}

// Schedule registers the periodic refresh and starts the cron loop.
// Standard five-field cron format.
func (w *RefreshWorker) Schedule(ctx context.Context, spec string) error {
	_, err := w.cron.AddFunc(spec, func() {
		err := w.refresher.Refresh(ctx)
		w.structured.LogRefreshCompleted(ctx, amqp.ReasonScheduled, err)
	})
	if err != nil {
		return fmt.Errorf("register refresh schedule %q: %w", spec, err)
	}
	w.cron.Start()
	w.logger.InfoContext(ctx, "Refresh schedule registered", "cron", spec)
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (w *RefreshWorker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
}
