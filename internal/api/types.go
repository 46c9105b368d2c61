package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Response type values accepted in a submission body.
const (
	ResponseTypeDirect = "direct"
	ResponseTypeCloud  = "cloud"
)

// TranscribeRequest is the body of POST /v1/media/transcribe.
type TranscribeRequest struct {
	MediaURL        string `json:"media_url"`
	Task            string `json:"task,omitempty"`
	IncludeText     *bool  `json:"include_text,omitempty"`
	IncludeSRT      bool   `json:"include_srt,omitempty"`
	IncludeSegments bool   `json:"include_segments,omitempty"`
	WordTimestamps  bool   `json:"word_timestamps,omitempty"`
	ResponseType    string `json:"response_type,omitempty"`
	Language        string `json:"language,omitempty"`
	WebhookURL      string `json:"webhook_url,omitempty"`
	ID              string `json:"id,omitempty"`
}

// AcceptedResponse acknowledges a queued submission.
type AcceptedResponse struct {
	JobID   string `json:"job_id"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobError describes why a job failed.
type JobError struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

// JobResponse describes a job in a transport-friendly format.
type JobResponse struct {
	JobID      string          `json:"job_id"`
	ID         string          `json:"id,omitempty"`
	Status     string          `json:"status"`
	Stage      string          `json:"stage,omitempty"`
	MediaURL   string          `json:"media_url"`
	Attempts   int             `json:"attempts"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
	StartedAt  string          `json:"started_at,omitempty"`
	FinishedAt string          `json:"finished_at,omitempty"`
	Error      *JobError       `json:"error,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	Workers    int            `json:"workers"`
	ActiveJobs []string       `json:"active_jobs"`
	QueueStats map[string]int `json:"queue_stats"`
	LastError  string         `json:"last_error,omitempty"`
	LastJobID  string         `json:"last_job_id,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queue_db_path"`
	LockFilePath string         `json:"lock_file_path"`
	Storage      string         `json:"storage,omitempty"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// ErrorResponse is the body returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
