package daemon

import (
	"context"
	"time"

	"transcriber/internal/logging"
	"transcriber/internal/scratch"
)

func (d *Daemon) runSweeper(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Sweep.IntervalSeconds) * time.Second
	maxAge := time.Duration(d.cfg.Sweep.RetentionSeconds) * time.Second
	logger := logging.NewComponentLogger(d.logger, "sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := scratch.Sweep(logger, d.cfg.Paths.ScratchDir, maxAge, time.Now()); err != nil {
			logging.WarnWithContext(logger, "scratch sweep failed", "scratch_sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
				logging.String(logging.FieldImpact, "stale scratch files remain on disk"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
