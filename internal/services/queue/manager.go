// Package queue runs the polling worker pool and lease-reclamation loop
// that drive processing_jobs from queued through to a terminal state.
package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

// Manager owns the worker pool, the reclaim loop, and the live-event hub.
type Manager struct {
	jobs         interfaces.JobStore
	publishers   interfaces.PublisherStore
	orchestrator interfaces.Orchestrator
	logger       *common.Logger
	hub          *JobWSHub
	config       common.QueueConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a queue manager.
func NewManager(
	jobs interfaces.JobStore,
	publishers interfaces.PublisherStore,
	orchestrator interfaces.Orchestrator,
	logger *common.Logger,
	config common.QueueConfig,
) *Manager {
	return &Manager{
		jobs:         jobs,
		publishers:   publishers,
		orchestrator: orchestrator,
		logger:       logger,
		hub:          NewJobWSHub(logger),
		config:       config,
	}
}

// Hub returns the WebSocket hub for external handler registration.
func (m *Manager) Hub() interfaces.JobEventHub {
	return m.hub
}

// safeGo launches a goroutine with panic recovery and logging.
func (m *Manager) safeGo(name string, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in queue manager goroutine")
			}
		}()
		fn()
	}()
}

// Start resets orphaned jobs left processing by a prior crash, then launches
// the event hub, the reclaim loop, and the worker pool. Safe to call
// multiple times — stops any existing loops first.
func (m *Manager) Start(ctx context.Context) error {
	if m.cancel != nil {
		m.Stop(ctx)
	}
	select {
	case <-m.hub.done:
		// A stopped hub cannot run again; replace it.
		m.hub = NewJobWSHub(m.logger)
	default:
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	if count, err := m.jobs.ResetOrphaned(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to reset orphaned jobs")
	} else if count > 0 {
		m.logger.Info().Int("count", count).Msg("Reset orphaned processing jobs to queued")
	}

	m.safeGo("websocket-hub", func() { m.hub.Run() })
	m.safeGo("reclaim-loop", func() { m.reclaimLoop(runCtx) })

	workers := m.config.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("worker-%d", i)
		m.safeGo(name, func() { m.workLoop(runCtx, name) })
	}

	m.logger.Info().
		Int("workers", workers).
		Dur("poll_interval", m.config.PollInterval()).
		Dur("stale_lease", m.config.StaleLease()).
		Msg("Queue manager started")
	return nil
}

// Stop cancels all loops and waits for completion.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.hub.Stop()
	m.wg.Wait()
	m.logger.Info().Msg("Queue manager stopped")
	return nil
}

// Submit finds an existing non-terminal job for blogURL, or creates one.
func (m *Manager) Submit(ctx context.Context, blogURL, publisherID string, cfg models.PublisherConfig) (string, bool, error) {
	snapshot, err := marshalConfig(cfg)
	if err != nil {
		return "", false, fmt.Errorf("marshaling publisher config snapshot: %w", err)
	}
	return m.jobs.CreateJob(ctx, blogURL, publisherID, snapshot)
}

// Stats returns grouped job counts by status.
func (m *Manager) Stats(ctx context.Context) (*models.JobStats, error) {
	return m.jobs.Stats(ctx)
}

// JobStatus returns a single job's current state.
func (m *Manager) JobStatus(ctx context.Context, jobID string) (*models.Job, error) {
	return m.jobs.GetJob(ctx, jobID)
}

// workLoop continuously claims and executes jobs, sleeping PollInterval
// whenever the queue is empty.
func (m *Manager) workLoop(ctx context.Context, workerID string) {
	interval := m.config.PollInterval()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.claim(ctx, workerID)
		if err != nil {
			m.logger.Warn().Str("worker_id", workerID).Err(err).Msg("Worker: claim error")
			if !sleepOrDone(ctx, interval) {
				return
			}
			continue
		}
		if job == nil {
			if !sleepOrDone(ctx, interval) {
				return
			}
			continue
		}

		m.heartbeatDuring(ctx, job, workerID, func() {
			m.runJob(ctx, job)
		})
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

var _ interfaces.QueueManager = (*Manager)(nil)
