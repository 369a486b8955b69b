package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

const jobSelectFields = "job_id as id, blog_url, publisher_id, config, status, failure_count, max_retries, " +
	"last_error, error_type, worker_id, heartbeat_at, created_at, started_at, completed_at, updated_at, " +
	"result, reprocessed_count"

// JobStore implements interfaces.JobStore against table processing_jobs.
type JobStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewJobStore creates a new JobStore.
func NewJobStore(db *surrealdb.DB, logger *common.Logger) *JobStore {
	return &JobStore{db: db, logger: logger}
}

// CreateJob inserts a new queued job for blogURL, or — if a non-terminal job
// for that URL already exists — joins it instead. Uniqueness is enforced by
// the database via the active_url unique index (see manager.go), not by an
// application-level check-then-insert, so two concurrent submissions for the
// same URL cannot both create a fresh job: exactly one CREATE wins, and the
// loser falls back to finding whatever job won.
func (s *JobStore) CreateJob(ctx context.Context, blogURL, publisherID, configSnapshot string) (string, bool, error) {
	id := uuid.New().String()
	now := time.Now()

	sql := `CREATE $rid SET
		job_id = $job_id, blog_url = $blog_url, active_url = $blog_url, publisher_id = $publisher_id, config = $config,
		status = $status, failure_count = 0, max_retries = $max_retries, last_error = "",
		error_type = "", worker_id = "", heartbeat_at = NONE, created_at = $created_at,
		started_at = NONE, completed_at = NONE, updated_at = $created_at, result = "",
		reprocessed_count = 0`
	vars := map[string]any{
		"rid":          surrealmodels.NewRecordID("processing_jobs", id),
		"job_id":       id,
		"blog_url":     blogURL,
		"publisher_id": publisherID,
		"config":       configSnapshot,
		"status":       models.JobStatusQueued,
		"max_retries":  models.DefaultMaxRetries,
		"created_at":   now,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		if !isUniqueConstraintErr(err) {
			return "", false, fmt.Errorf("failed to create job: %w", err)
		}
		existing, findErr := s.FindNonTerminalByURL(ctx, blogURL)
		if findErr != nil {
			return "", false, findErr
		}
		if existing == nil {
			return "", false, fmt.Errorf("job creation conflicted but no non-terminal job found for %s: %w", blogURL, err)
		}
		return existing.ID, false, nil
	}
	return id, true, nil
}

// isUniqueConstraintErr reports whether err is SurrealDB rejecting a write
// against the processing_jobs_active_url index (see manager.go).
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "already contains") || strings.Contains(err.Error(), "index")
}

// ClaimNext atomically selects the oldest queued job and marks it processing.
func (s *JobStore) ClaimNext(ctx context.Context, workerID string) (*models.Job, error) {
	selectSQL := "SELECT " + jobSelectFields + " FROM processing_jobs WHERE status = $queued ORDER BY created_at ASC LIMIT 1"
	candidates, err := surrealdb.Query[[]models.Job](ctx, s.db, selectSQL, map[string]any{"queued": models.JobStatusQueued})
	if err != nil {
		return nil, fmt.Errorf("failed to select candidate job: %w", err)
	}
	if candidates == nil || len(*candidates) == 0 || len((*candidates)[0].Result) == 0 {
		return nil, nil
	}
	candidate := (*candidates)[0].Result[0]

	now := time.Now()
	updateSQL := `UPDATE $rid SET status = $processing, worker_id = $worker_id, started_at = $now,
		heartbeat_at = $now, updated_at = $now WHERE status = $queued`
	updateVars := map[string]any{
		"rid":        surrealmodels.NewRecordID("processing_jobs", candidate.ID),
		"processing": models.JobStatusProcessing,
		"worker_id":  workerID,
		"now":        now,
		"queued":     models.JobStatusQueued,
	}
	claimed, err := surrealdb.Query[[]struct {
		Status string `json:"status"`
	}](ctx, s.db, updateSQL, updateVars)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	if claimed == nil || len(*claimed) == 0 || len((*claimed)[0].Result) == 0 {
		// Another worker claimed the candidate between the SELECT and the
		// conditional UPDATE.
		return nil, nil
	}

	candidate.Status = models.JobStatusProcessing
	candidate.WorkerID = workerID
	candidate.StartedAt = now
	candidate.HeartbeatAt = now
	return &candidate, nil
}

// Heartbeat refreshes heartbeat_at only if workerID still owns the job.
func (s *JobStore) Heartbeat(ctx context.Context, jobID, workerID string) error {
	sql := "UPDATE $rid SET heartbeat_at = $now WHERE worker_id = $worker_id AND status = $processing"
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID("processing_jobs", jobID),
		"now":        time.Now(),
		"worker_id":  workerID,
		"processing": models.JobStatusProcessing,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to heartbeat job: %w", err)
	}
	return nil
}

// Complete transitions a job to completed, freeing active_url so a future
// submission for the same blog_url can create a fresh job.
func (s *JobStore) Complete(ctx context.Context, jobID, result string) error {
	now := time.Now()
	sql := "UPDATE $rid SET status = $status, result = $result, active_url = NONE, completed_at = $now, updated_at = $now"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID("processing_jobs", jobID),
		"status": models.JobStatusCompleted,
		"result": result,
		"now":    now,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// Fail increments failure_count; transitions to failed once max_retries is
// reached, otherwise re-queues. A re-queue clears both worker_id and
// started_at — the next claim should look like a fresh pickup, not a
// continuation of the failed attempt's timing. A terminal failure also
// frees active_url, same as Complete.
func (s *JobStore) Fail(ctx context.Context, jobID, errorType, errorMessage string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	now := time.Now()
	newFailureCount := job.FailureCount + 1
	terminal := newFailureCount >= job.MaxRetries
	status := models.JobStatusQueued
	if terminal {
		status = models.JobStatusFailed
	}

	sql := `UPDATE $rid SET status = $status, failure_count = $failure_count, last_error = $last_error,
		error_type = $error_type, worker_id = "", started_at = NONE, updated_at = $now`
	if terminal {
		sql += `, active_url = NONE`
	}
	vars := map[string]any{
		"rid":           surrealmodels.NewRecordID("processing_jobs", jobID),
		"status":        status,
		"failure_count": newFailureCount,
		"last_error":    errorMessage,
		"error_type":    errorType,
		"now":           now,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to record job failure: %w", err)
	}
	return nil
}

// Skip transitions a job to the terminal skipped state, freeing active_url.
func (s *JobStore) Skip(ctx context.Context, jobID, reason string) error {
	now := time.Now()
	sql := "UPDATE $rid SET status = $status, last_error = $reason, active_url = NONE, completed_at = $now, updated_at = $now"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID("processing_jobs", jobID),
		"status": models.JobStatusSkipped,
		"reason": reason,
		"now":    now,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to skip job: %w", err)
	}
	return nil
}

// ErrJobNotCancellable is returned by Cancel when jobID doesn't exist or
// isn't currently queued — it has already been claimed, finished, or
// cancelled, and the conditional update matched nothing.
var ErrJobNotCancellable = errors.New("job is not in a cancellable state")

// Cancel transitions a queued job to cancelled. The WHERE clause makes this
// a no-op against any job that isn't queued; that no-op is distinguished
// from success by the rows the UPDATE returns (none when nothing matched),
// since SurrealDB's UPDATE doesn't report a matched-row count the way a SQL
// rowsAffected would.
func (s *JobStore) Cancel(ctx context.Context, jobID string) error {
	sql := "UPDATE $rid SET status = $cancelled, active_url = NONE, updated_at = $now WHERE status = $queued"
	vars := map[string]any{
		"rid":       surrealmodels.NewRecordID("processing_jobs", jobID),
		"cancelled": models.JobStatusCancelled,
		"queued":    models.JobStatusQueued,
		"now":       time.Now(),
	}
	results, err := surrealdb.Query[[]struct {
		Status string `json:"status"`
	}](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrJobNotCancellable
	}
	return nil
}

// ReclaimStale forces any processing job whose heartbeat is older than staleAfter
// back through the failure path, as if it had failed once.
func (s *JobStore) ReclaimStale(ctx context.Context, now time.Time, staleAfter time.Duration) (int, error) {
	cutoff := now.Add(-staleAfter)
	sql := "SELECT " + jobSelectFields + " FROM processing_jobs WHERE status = $processing AND heartbeat_at < $cutoff"
	candidates, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, map[string]any{
		"processing": models.JobStatusProcessing,
		"cutoff":     cutoff,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to find stale jobs: %w", err)
	}
	if candidates == nil || len(*candidates) == 0 {
		return 0, nil
	}

	count := 0
	for _, job := range (*candidates)[0].Result {
		if err := s.Fail(ctx, job.ID, models.ErrorTypeUnknown, "reclaimed: stale lease"); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to reclaim stale job")
			continue
		}
		count++
	}
	return count, nil
}

// Stats returns grouped counts by status.
func (s *JobStore) Stats(ctx context.Context) (*models.JobStats, error) {
	type statusCount struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	sql := "SELECT status, count() AS count FROM processing_jobs GROUP BY status"
	results, err := surrealdb.Query[[]statusCount](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compute job stats: %w", err)
	}

	stats := &models.JobStats{}
	if results == nil || len(*results) == 0 {
		return stats, nil
	}
	for _, sc := range (*results)[0].Result {
		switch sc.Status {
		case models.JobStatusQueued:
			stats.Queued = sc.Count
		case models.JobStatusProcessing:
			stats.Processing = sc.Count
		case models.JobStatusCompleted:
			stats.Completed = sc.Count
		case models.JobStatusFailed:
			stats.Failed = sc.Count
		case models.JobStatusCancelled:
			stats.Cancelled = sc.Count
		case models.JobStatusSkipped:
			stats.Skipped = sc.Count
		}
	}
	return stats, nil
}

// GetJob fetches a single job by id.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	sql := "SELECT " + jobSelectFields + " FROM $rid"
	results, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, map[string]any{
		"rid": surrealmodels.NewRecordID("processing_jobs", jobID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	job := (*results)[0].Result[0]
	return &job, nil
}

// FindNonTerminalByURL returns the non-terminal job for blogURL, if any.
func (s *JobStore) FindNonTerminalByURL(ctx context.Context, blogURL string) (*models.Job, error) {
	sql := "SELECT " + jobSelectFields + " FROM processing_jobs WHERE blog_url = $blog_url AND status IN $statuses LIMIT 1"
	results, err := surrealdb.Query[[]models.Job](ctx, s.db, sql, map[string]any{
		"blog_url": blogURL,
		"statuses": models.NonTerminalStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find non-terminal job: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	job := (*results)[0].Result[0]
	return &job, nil
}

// CountCompletedSince counts jobs for publisherID completed at or after since.
func (s *JobStore) CountCompletedSince(ctx context.Context, publisherID string, since time.Time) (int, error) {
	type countResult struct {
		Cnt int `json:"cnt"`
	}
	sql := "SELECT count() AS cnt FROM processing_jobs WHERE publisher_id = $publisher_id AND status = $completed AND completed_at >= $since GROUP ALL"
	results, err := surrealdb.Query[[]countResult](ctx, s.db, sql, map[string]any{
		"publisher_id": publisherID,
		"completed":    models.JobStatusCompleted,
		"since":        since,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Cnt, nil
	}
	return 0, nil
}

// ResetOrphaned resets processing jobs back to queued on worker startup.
func (s *JobStore) ResetOrphaned(ctx context.Context) (int, error) {
	sql := `UPDATE processing_jobs SET status = $queued, worker_id = "", heartbeat_at = NONE WHERE status = $processing`
	_, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{
		"queued":     models.JobStatusQueued,
		"processing": models.JobStatusProcessing,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset orphaned jobs: %w", err)
	}
	return 0, nil
}

var _ interfaces.JobStore = (*JobStore)(nil)
