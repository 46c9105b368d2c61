package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"transcriber/internal/services"
	"transcriber/internal/services/openai"
	"transcriber/internal/transcript"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribeMapsVerboseJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("response_format") != "verbose_json" || r.FormValue("language") != "en" || r.FormValue("model") != "whisper-1" {
			t.Errorf("unexpected form %v", r.MultipartForm.Value)
		}
		if got := r.MultipartForm.Value["timestamp_granularities[]"]; len(got) != 2 {
			t.Errorf("expected word granularity, got %v", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"language": "english",
			"text":     "hello world",
			"segments": []map[string]any{
				{"start": 0.0, "end": 1.2, "text": "hello"},
				{"start": 1.2, "end": 2.0, "text": "world"},
			},
			"words": []map[string]any{
				{"word": "hello", "start": 0.1, "end": 1.0},
				{"word": " world", "start": 1.3, "end": 1.9},
			},
		})
	}))
	defer server.Close()

	client := openai.New(openai.WithAPIKey("sk-test"), openai.WithBaseURL(server.URL+"/v1/"))
	result, err := client.Transcribe(context.Background(), writeAudio(t), transcript.Options{
		Task:           transcript.TaskTranscribe,
		Language:       "English",
		WordTimestamps: true,
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Language != "english" || len(result.Segments) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Segments[0].Words) != 1 || len(result.Segments[1].Words) != 1 || result.Segments[1].Words[0].Text != "world" {
		t.Fatalf("words not distributed: %+v", result.Segments)
	}
}

func TestTranslateUsesTranslationsEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/translations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = r.ParseMultipartForm(1 << 20)
		if _, ok := r.MultipartForm.Value["timestamp_granularities[]"]; ok {
			t.Error("translations must not request word granularity")
		}
		_, _ = w.Write([]byte(`{"language":"german","text":"hi","segments":[{"start":0,"end":1,"text":"hi"}]}`))
	}))
	defer server.Close()

	client := openai.New(openai.WithAPIKey("k"), openai.WithBaseURL(server.URL))
	result, err := client.Transcribe(context.Background(), writeAudio(t), transcript.Options{Task: transcript.TaskTranslate, WordTimestamps: true})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Segments) != 1 || result.Segments[0].Words != nil {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTranscribeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad audio"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := openai.New(openai.WithAPIKey("k"), openai.WithBaseURL(server.URL))
	_, err := client.Transcribe(context.Background(), writeAudio(t), transcript.Options{})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	_, err := openai.New().Transcribe(context.Background(), writeAudio(t), transcript.Options{})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}
