package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"transcriber/internal/delivery"
	"transcriber/internal/output"
	"transcriber/internal/pipeline"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

// maxRequestBytes bounds a submission body.
const maxRequestBytes = 1 << 20

// DecodeTranscribeRequest reads a submission body. Unknown fields, trailing
// data, and a missing media_url are validation errors.
func DecodeTranscribeRequest(r io.Reader) (TranscribeRequest, error) {
	dec := json.NewDecoder(io.LimitReader(r, maxRequestBytes))
	dec.DisallowUnknownFields()

	var req TranscribeRequest
	if err := dec.Decode(&req); err != nil {
		return TranscribeRequest{}, invalidRequest(fmt.Sprintf("decode body: %v", err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return TranscribeRequest{}, invalidRequest("body must contain a single JSON object")
	}
	if strings.TrimSpace(req.MediaURL) == "" {
		return TranscribeRequest{}, invalidRequest("media_url is required")
	}
	return req, nil
}

// Pipeline converts the body into a normalized pipeline request for jobID.
func (r TranscribeRequest) Pipeline(jobID string) (pipeline.Request, error) {
	includeText := true
	if r.IncludeText != nil {
		includeText = *r.IncludeText
	}

	var mode delivery.Mode
	switch strings.ToLower(strings.TrimSpace(r.ResponseType)) {
	case "", ResponseTypeDirect:
		mode = delivery.ModeInline
	case ResponseTypeCloud:
		mode = delivery.ModeUploaded
	default:
		return pipeline.Request{}, invalidRequest(fmt.Sprintf("response_type must be %q or %q", ResponseTypeDirect, ResponseTypeCloud))
	}

	if hook := strings.TrimSpace(r.WebhookURL); hook != "" {
		parsed, err := url.Parse(hook)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return pipeline.Request{}, invalidRequest(fmt.Sprintf("webhook_url %q must be an absolute http(s) url", hook))
		}
	}

	req := pipeline.Request{
		JobID:          jobID,
		SourceURL:      r.MediaURL,
		Task:           transcript.Task(strings.ToLower(strings.TrimSpace(r.Task))),
		Language:       r.Language,
		WordTimestamps: r.WordTimestamps,
		Wants: output.Wants{
			Text:     includeText,
			SRT:      r.IncludeSRT,
			Segments: r.IncludeSegments,
		},
		Delivery: mode,
	}
	return req.Normalize()
}

func invalidRequest(message string) error {
	return services.Wrap(services.ErrValidation, "received", "decode request", message, nil)
}
