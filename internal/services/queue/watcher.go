package queue

import (
	"context"
	"time"
)

// reclaimLoop periodically sweeps processing jobs whose heartbeat has gone
// stale and forces them back through the failure path, backing off
// exponentially on repeated store errors the way the original watcher
// backed off on repeated scan failures.
func (m *Manager) reclaimLoop(ctx context.Context) {
	const backoffMax = 30 * time.Second

	interval := m.config.PollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	backoff := time.Duration(0)

	sweep := func() {
		if ok := m.reclaimStaleJobs(ctx); ok {
			backoff = 0
			return
		}
		if backoff == 0 {
			backoff = 2 * time.Second
		} else {
			backoff *= 2
			if backoff > backoffMax {
				backoff = backoffMax
			}
		}
		m.logger.Warn().Dur("backoff", backoff).Msg("Reclaim loop: store error, backing off")
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// reclaimStaleJobs forces any job whose lease has expired back through the
// failure path. Returns false on store error (used by reclaimLoop for
// backoff).
func (m *Manager) reclaimStaleJobs(ctx context.Context) bool {
	n, err := m.jobs.ReclaimStale(ctx, time.Now(), m.config.StaleLease())
	if err != nil {
		m.logger.Warn().Err(err).Msg("Reclaim loop: failed to reclaim stale jobs")
		return false
	}
	if n > 0 {
		m.logger.Info().Int("count", n).Msg("Reclaim loop: reclaimed stale leases")
	}
	return true
}
