package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"transcriber/internal/queue"
)

// JobStore abstracts the queue persistence needed by the HTTP surface.
type JobStore interface {
	Enqueue(ctx context.Context, job queue.NewJob) (*queue.Job, error)
	Get(ctx context.Context, id string) (*queue.Job, error)
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
}

// JobService submits jobs and exposes read-only views as API DTOs.
type JobService struct {
	store JobStore
	newID func() string
}

// NewJobService constructs a JobService around the provided store.
func NewJobService(store JobStore) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store, newID: uuid.NewString}
}

// Submit validates req and enqueues it under a fresh job id.
func (s *JobService) Submit(ctx context.Context, req TranscribeRequest) (AcceptedResponse, error) {
	jobID := s.newID()
	normalized, err := req.Pipeline(jobID)
	if err != nil {
		return AcceptedResponse{}, err
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return AcceptedResponse{}, fmt.Errorf("encode request: %w", err)
	}
	job, err := s.store.Enqueue(ctx, queue.NewJob{
		ID:          jobID,
		ClientID:    req.ID,
		SourceURL:   normalized.SourceURL,
		RequestJSON: string(payload),
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		return AcceptedResponse{}, err
	}
	return AcceptedResponse{
		JobID:   job.ID,
		ID:      job.ClientID,
		Status:  string(job.Status),
		Message: "processing",
	}, nil
}

// Describe fetches a single job. Missing jobs surface queue.ErrNotFound.
func (s *JobService) Describe(ctx context.Context, id string) (*JobResponse, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// List returns jobs filtered by status.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]JobResponse, error) {
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}
