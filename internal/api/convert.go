package api

import (
	"encoding/json"
	"time"

	"transcriber/internal/queue"
	"transcriber/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) JobResponse {
	if job == nil {
		return JobResponse{}
	}
	dto := JobResponse{
		JobID:     job.ID,
		ID:        job.ClientID,
		Status:    string(job.Status),
		Stage:     job.Stage,
		MediaURL:  job.SourceURL,
		Attempts:  job.Attempts,
		CreatedAt: FormatTime(job.CreatedAt),
		UpdatedAt: FormatTime(job.UpdatedAt),
	}
	if job.StartedAt != nil {
		dto.StartedAt = FormatTime(*job.StartedAt)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = FormatTime(*job.FinishedAt)
	}
	if job.Status == queue.StatusFailed {
		dto.Error = &JobError{
			Message: job.ErrorMessage,
			Kind:    job.ErrorKind,
			Stage:   job.FailedStage,
		}
	}
	if raw := job.ResultJSON; raw != "" && json.Valid([]byte(raw)) {
		dto.Response = json.RawMessage(raw)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	active := summary.ActiveJobs
	if active == nil {
		active = []string{}
	}
	return WorkflowStatus{
		Running:    summary.Running,
		Workers:    summary.Workers,
		ActiveJobs: active,
		QueueStats: QueueStats(summary.QueueStats),
		LastError:  summary.LastError,
		LastJobID:  summary.LastJobID,
	}
}

// QueueStats produces a string-keyed representation of queue counts.
func QueueStats(health queue.HealthSummary) map[string]int {
	return map[string]int{
		string(queue.StatusQueued):     health.Queued,
		string(queue.StatusProcessing): health.Processing,
		string(queue.StatusCompleted):  health.Completed,
		string(queue.StatusFailed):     health.Failed,
	}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
