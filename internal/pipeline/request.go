package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"transcriber/internal/delivery"
	"transcriber/internal/language"
	"transcriber/internal/output"
	"transcriber/internal/scratch"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

// Request is an accepted job description. It is not modified after Normalize.
type Request struct {
	JobID          string          `json:"job_id"`
	SourceURL      string          `json:"source_url"`
	Task           transcript.Task `json:"task"`
	Language       string          `json:"language,omitempty"`
	WordTimestamps bool            `json:"word_timestamps"`
	Wants          output.Wants    `json:"wants"`
	Delivery       delivery.Mode   `json:"delivery"`
}

// Normalize fills defaults and validates the request. Failures carry
// services.ErrValidation.
func (r Request) Normalize() (Request, error) {
	r.JobID = strings.TrimSpace(r.JobID)
	r.SourceURL = strings.TrimSpace(r.SourceURL)

	if err := scratch.ValidateJobID(r.JobID); err != nil {
		return Request{}, invalid(err.Error())
	}
	parsed, err := url.Parse(r.SourceURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Request{}, invalid(fmt.Sprintf("source url %q must be an absolute http(s) url", r.SourceURL))
	}
	task, err := transcript.ParseTask(string(r.Task))
	if err != nil {
		return Request{}, invalid(err.Error())
	}
	r.Task = task
	hint, ok := language.Hint(r.Language)
	if !ok {
		return Request{}, invalid(fmt.Sprintf("unrecognized language %q", r.Language))
	}
	r.Language = hint
	mode, err := delivery.ParseMode(string(r.Delivery))
	if err != nil {
		return Request{}, err
	}
	r.Delivery = mode
	return r, nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, string(StateReceived), "validate request", message, nil)
}
