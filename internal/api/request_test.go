package api

import (
	"errors"
	"strings"
	"testing"

	"transcriber/internal/delivery"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

func TestDecodeTranscribeRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "minimal", body: `{"media_url":"https://example.com/a.mp3"}`},
		{name: "all fields", body: `{"media_url":"https://example.com/a.mp3","task":"translate","include_text":false,"include_srt":true,"include_segments":true,"word_timestamps":true,"response_type":"cloud","language":"es","webhook_url":"https://hooks.example.com/x","id":"abc"}`},
		{name: "missing media url", body: `{"task":"transcribe"}`, wantErr: true},
		{name: "unknown field", body: `{"media_url":"https://example.com/a.mp3","speed":2}`, wantErr: true},
		{name: "wrong type", body: `{"media_url":"https://example.com/a.mp3","include_srt":"yes"}`, wantErr: true},
		{name: "trailing data", body: `{"media_url":"https://example.com/a.mp3"} {}`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTranscribeRequest(strings.NewReader(tt.body))
			if tt.wantErr {
				if !errors.Is(err, services.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeTranscribeRequest: %v", err)
			}
		})
	}
}

func TestTranscribeRequestPipelineDefaults(t *testing.T) {
	req, err := DecodeTranscribeRequest(strings.NewReader(`{"media_url":"https://example.com/a.mp3"}`))
	if err != nil {
		t.Fatal(err)
	}
	got, err := req.Pipeline("job-1")
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if got.JobID != "job-1" || got.SourceURL != "https://example.com/a.mp3" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.Task != transcript.TaskTranscribe {
		t.Fatalf("task = %q", got.Task)
	}
	if !got.Wants.Text || got.Wants.SRT || got.Wants.Segments {
		t.Fatalf("wants = %+v, want text only", got.Wants)
	}
	if got.Delivery != delivery.ModeInline {
		t.Fatalf("delivery = %q", got.Delivery)
	}
}

func TestTranscribeRequestPipelineOptions(t *testing.T) {
	off := false
	req := TranscribeRequest{
		MediaURL:        "https://example.com/a.mp3",
		Task:            "Translate",
		IncludeText:     &off,
		IncludeSRT:      true,
		IncludeSegments: true,
		WordTimestamps:  true,
		ResponseType:    "cloud",
		Language:        "es",
	}
	got, err := req.Pipeline("job-2")
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if got.Task != transcript.TaskTranslate || got.Delivery != delivery.ModeUploaded {
		t.Fatalf("unexpected task/delivery: %+v", got)
	}
	if got.Wants.Text || !got.Wants.SRT || !got.Wants.Segments || !got.WordTimestamps {
		t.Fatalf("unexpected wants: %+v", got)
	}
	if got.Language != "es" {
		t.Fatalf("language = %q", got.Language)
	}
}

func TestTranscribeRequestPipelineRejects(t *testing.T) {
	tests := []struct {
		name string
		req  TranscribeRequest
	}{
		{name: "bad response type", req: TranscribeRequest{MediaURL: "https://example.com/a.mp3", ResponseType: "email"}},
		{name: "bad task", req: TranscribeRequest{MediaURL: "https://example.com/a.mp3", Task: "summarize"}},
		{name: "relative url", req: TranscribeRequest{MediaURL: "/a.mp3"}},
		{name: "bad webhook", req: TranscribeRequest{MediaURL: "https://example.com/a.mp3", WebhookURL: "ftp://hooks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.req.Pipeline("job-3"); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
