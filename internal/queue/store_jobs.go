package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a job id does not exist.
var ErrNotFound = errors.New("job not found")

// Enqueue inserts a queued job. The id must be unique.
func (s *Store) Enqueue(ctx context.Context, job NewJob) (*Job, error) {
	if strings.TrimSpace(job.ID) == "" {
		return nil, errors.New("job id is required")
	}
	if strings.TrimSpace(job.SourceURL) == "" {
		return nil, errors.New("source url is required")
	}
	now := timestamp(time.Now())
	if _, err := s.exec(
		ctx,
		`INSERT INTO jobs (
            id, client_id, status, source_url, request_json, webhook_url, attempts, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		job.ID,
		nullableString(job.ClientID),
		StatusQueued,
		job.SourceURL,
		job.RequestJSON,
		nullableString(job.WebhookURL),
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, job.ID)
}

// Get fetches a job by id. A missing job yields ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs matching any of statuses, oldest first. No statuses means all.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := statusArgs(statuses)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimNext atomically moves the oldest queued job to processing and returns
// it. It returns nil when nothing is queued.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	now := timestamp(time.Now())
	var job *Job
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`UPDATE jobs
            SET status = ?, stage = NULL, attempts = attempts + 1, error_message = NULL,
                error_kind = NULL, failed_stage = NULL, started_at = ?, finished_at = NULL,
                last_heartbeat = ?, updated_at = ?
            WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1)
            RETURNING `+jobColumns,
			StatusProcessing, now, now, now, StatusQueued,
		)
		var scanErr error
		job, scanErr = scanJob(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// UpdateStage records the pipeline stage of a processing job and refreshes
// its heartbeat.
func (s *Store) UpdateStage(ctx context.Context, id, stage string) error {
	now := timestamp(time.Now())
	if _, err := s.exec(
		ctx,
		`UPDATE jobs SET stage = ?, last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		stage, now, now, id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// UpdateHeartbeat refreshes the heartbeat of an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := timestamp(time.Now())
	if _, err := s.exec(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now, now, id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// Complete marks a job completed with its result document.
func (s *Store) Complete(ctx context.Context, id, resultJSON string) error {
	return s.finish(ctx, id, StatusCompleted, resultJSON, "", "", "")
}

// Fail marks a job failed with a message, taxonomy kind, and the stage that failed.
func (s *Store) Fail(ctx context.Context, id, message, kind, stage string) error {
	return s.finish(ctx, id, StatusFailed, "", message, kind, stage)
}

func (s *Store) finish(ctx context.Context, id string, status Status, resultJSON, message, kind, stage string) error {
	now := timestamp(time.Now())
	res, err := s.exec(
		ctx,
		`UPDATE jobs
        SET status = ?, result_json = ?, error_message = ?, error_kind = ?, failed_stage = ?,
            finished_at = ?, last_heartbeat = NULL, updated_at = ?
        WHERE id = ?`,
		status,
		nullableString(resultJSON),
		nullableString(message),
		nullableString(kind),
		nullableString(stage),
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job %s: %w", status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
