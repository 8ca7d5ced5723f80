package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"creatorvault/internal/creator"
	"creatorvault/internal/server"
)

// Serve runs the HTTP API until ctx is cancelled. Pending payments are
// reconciled once at startup and then on the configured cron schedule.
// dec serves encrypted media; nil answers such requests with 403.
func (a *App) Serve(ctx context.Context, dec creator.DecryptionContext) error {
	listen := a.cfg.Server.Listen
	if err := a.persistOperation(listen); err != nil {
		return err
	}

	a.reconcile()

	if spec := a.cfg.Payments.ReconcileSchedule; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, a.reconcile); err != nil {
			return a.op.Record(fmt.Errorf("scheduling reconciler %q: %w", spec, err))
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	return a.op.Record(a.Server(dec).Run(ctx, listen))
}

// Server builds the HTTP API without listening.
func (a *App) Server(dec creator.DecryptionContext) *server.Server {
	return server.New(a.service, server.Options{
		Tokens:        a.tokens,
		Fallback:      a.fallbackIdentity(),
		Decryption:    dec,
		MaxUploadSize: a.cfg.Media.MaxUploadSize,
		Logger:        a.logger,
	})
}

func (a *App) reconcile() {
	n, err := a.service.ReconcilePending(a.pendingTimeout())
	if err != nil {
		a.logger.Error("reconciling pending payments", "error", err)
		return
	}
	if n > 0 {
		a.logger.Warn("failed stale pending payments", "count", n)
	}
}
