package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"transcriber/internal/config"
)

const userAgent = "transcriber/0.1.0"

// Endpoint is the route name reported in webhook payloads.
const Endpoint = "/v1/transcribe/media"

// Payload is the JSON body posted to a webhook.
type Payload struct {
	Endpoint  string          `json:"endpoint"`
	Code      int             `json:"code"`
	ID        string          `json:"id,omitempty"`
	JobID     string          `json:"job_id"`
	Response  json.RawMessage `json:"response"`
	Message   string          `json:"message"`
	QueueTime float64         `json:"queue_time"`
	RunTime   float64         `json:"run_time"`
}

// Outcome describes a terminal job for notification purposes.
type Outcome struct {
	JobID      string
	ClientID   string
	WebhookURL string
	// Result is the JSON result document for completed jobs.
	Result json.RawMessage
	// Err is set for failed jobs.
	Err       error
	QueueTime time.Duration
	RunTime   time.Duration
}

// Service publishes job outcomes.
type Service interface {
	NotifyJobFinished(ctx context.Context, outcome Outcome) error
}

// NewService builds a webhook notifier using the workflow webhook timeout.
func NewService(cfg *config.Config) Service {
	timeout := time.Duration(cfg.Workflow.WebhookTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &webhookService{client: &http.Client{Timeout: timeout}}
}

// NewServiceWithClient builds a webhook notifier with a caller-supplied client.
func NewServiceWithClient(client *http.Client) Service {
	return &webhookService{client: client}
}

// BuildPayload converts an outcome to its webhook body. Failed jobs carry a
// null response and the error text as the message.
func BuildPayload(outcome Outcome) Payload {
	payload := Payload{
		Endpoint:  Endpoint,
		ID:        outcome.ClientID,
		JobID:     outcome.JobID,
		QueueTime: outcome.QueueTime.Seconds(),
		RunTime:   outcome.RunTime.Seconds(),
	}
	if outcome.Err != nil {
		payload.Code = http.StatusInternalServerError
		payload.Message = strings.TrimSpace(outcome.Err.Error())
		payload.Response = json.RawMessage("null")
		return payload
	}
	payload.Code = http.StatusOK
	payload.Message = "success"
	payload.Response = outcome.Result
	if len(payload.Response) == 0 {
		payload.Response = json.RawMessage("null")
	}
	return payload
}

type webhookService struct {
	client *http.Client
}

func (w *webhookService) NotifyJobFinished(ctx context.Context, outcome Outcome) error {
	target := strings.TrimSpace(outcome.WebhookURL)
	if w == nil || w.client == nil || target == "" {
		return nil
	}

	body, err := json.Marshal(BuildPayload(outcome))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
