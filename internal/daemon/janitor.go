package daemon

import (
	"context"
	"time"

	"telefetch/internal/logging"
	"telefetch/internal/scratch"
)

const janitorInterval = 30 * time.Minute

// runJanitor periodically sweeps the scratch area for directories left
// behind by crashed runs. Directories belonging to jobs that are still
// active are never touched, however old they look.
func (d *Daemon) runJanitor(ctx context.Context) {
	maxAge := d.cfg.ScratchMaxAgeDuration()
	if maxAge <= 0 {
		return
	}

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	d.sweepScratch(maxAge)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweepScratch(maxAge)
		}
	}
}

func (d *Daemon) sweepScratch(maxAge time.Duration) {
	keep := make(map[string]struct{})
	for _, job := range d.queue.Snapshot().Active {
		keep["job-"+job.ID] = struct{}{}
	}

	result := scratch.Sweep(d.cfg.Paths.ScratchDir, maxAge, keep, d.logger)
	if len(result.Removed) > 0 {
		d.logger.Info("scratch sweep reclaimed directories",
			logging.Int("removed", len(result.Removed)))
	}
}
