package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ternarybob/blogqa/internal/models"
)

// claim claims the next queued job and broadcasts a "job_started" event.
func (m *Manager) claim(ctx context.Context, workerID string) (*models.Job, error) {
	job, err := m.jobs.ClaimNext(ctx, workerID)
	if err != nil || job == nil {
		return job, err
	}

	m.broadcast("job_started", job)
	return job, nil
}

// heartbeatDuring runs fn while refreshing the job's heartbeat on a ticker
// half the stale-lease duration, so a long-running orchestrator step never
// looks abandoned to the reclaim loop.
func (m *Manager) heartbeatDuring(ctx context.Context, job *models.Job, workerID string, fn func()) {
	interval := m.config.StaleLease() / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := m.jobs.Heartbeat(ctx, job.ID, workerID); err != nil {
					m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("Heartbeat failed")
				}
			}
		}
	}()

	fn()
	close(done)
}

// broadcast sends a job event to the hub, best-effort.
func (m *Manager) broadcast(eventType string, job *models.Job) {
	if m.hub == nil {
		return
	}
	stats, _ := m.jobs.Stats(context.Background())
	queueSize := 0
	if stats != nil {
		queueSize = stats.Queued + stats.Processing
	}
	m.hub.Broadcast(models.JobEvent{
		Type:      eventType,
		Job:       job,
		Timestamp: time.Now(),
		QueueSize: queueSize,
	})
}

func marshalConfig(cfg models.PublisherConfig) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
