package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"transcriber/internal/logging"
	"transcriber/internal/notifications"
	"transcriber/internal/pipeline"
	"transcriber/internal/queue"
	"transcriber/internal/services"
)

// processJob runs a claimed job and records its terminal state. The returned
// error is only non-nil when the worker should stop.
func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	jobCtx := services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, m.logger)
	logger.Info("job claimed",
		logging.String(logging.FieldEventType, "job_claimed"),
		logging.Int("attempt", job.Attempts),
	)

	var req pipeline.Request
	if err := json.Unmarshal([]byte(job.RequestJSON), &req); err != nil {
		err = services.Wrap(services.ErrValidation, "received", "decode request", "", err)
		m.recordFailure(jobCtx, job, err)
		return nil
	}
	req.JobID = job.ID

	var hbWG sync.WaitGroup
	hbCtx, stopHeartbeat := context.WithCancel(jobCtx)
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	started := time.Now()
	result, runErr := m.runner.Run(jobCtx, req)
	stopHeartbeat()
	hbWG.Wait()

	if runErr != nil {
		// Engines surface shutdown as their own failure kinds; the worker
		// context decides whether the daemon interrupted the job.
		if ctx.Err() != nil {
			m.recordFailure(jobCtx, job, errors.New(queue.DaemonStopReason))
			return ctx.Err()
		}
		m.recordFailure(jobCtx, job, runErr)
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		m.recordFailure(jobCtx, job, fmt.Errorf("encode result: %w", err))
		return nil
	}
	persistCtx := context.WithoutCancel(jobCtx)
	if err := m.store.Complete(persistCtx, job.ID, string(payload)); err != nil {
		logger.Error("failed to persist job completion", logging.Error(err))
		m.setLastError(err)
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	m.finish(persistCtx, job, payload, nil)
	return nil
}

func (m *Manager) recordFailure(ctx context.Context, job *queue.Job, runErr error) {
	persistCtx := context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, m.logger)

	stage, _ := services.FailedStage(runErr)
	kind := services.Kind(runErr)
	if err := m.store.Fail(persistCtx, job.ID, runErr.Error(), kind, stage); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}
	logger.Warn("job failed",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String(logging.FieldErrorKind, kind),
		logging.String("failed_stage", stage),
		logging.Error(runErr),
	)
	m.setLastError(runErr)
	m.finish(persistCtx, job, nil, runErr)
}

// finish records the last job and fires its webhook. Webhook failures are
// logged and never alter the stored outcome.
func (m *Manager) finish(ctx context.Context, job *queue.Job, result json.RawMessage, runErr error) {
	latest, err := m.store.Get(ctx, job.ID)
	if err == nil {
		m.setLastJob(latest)
	} else {
		m.setLastJob(job)
	}

	if job.WebhookURL == "" || m.notifier == nil {
		return
	}
	outcome := notifications.Outcome{
		JobID:      job.ID,
		ClientID:   job.ClientID,
		WebhookURL: job.WebhookURL,
		Result:     result,
		Err:        runErr,
	}
	if job.StartedAt != nil {
		outcome.QueueTime = job.StartedAt.Sub(job.CreatedAt)
		outcome.RunTime = time.Since(*job.StartedAt)
	}
	if err := m.notifier.NotifyJobFinished(ctx, outcome); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "webhook delivery failed", "webhook_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the webhook endpoint"),
			logging.String(logging.FieldImpact, "caller was not notified; job result is still stored"),
		)
	}
}
