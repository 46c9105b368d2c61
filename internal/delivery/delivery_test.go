package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transcriber/internal/output"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

type fakeUploader struct {
	bucket   string
	failOn   string
	uploaded map[string]string
}

func (f *fakeUploader) UploadFile(_ context.Context, localPath string) (string, error) {
	name := filepath.Base(localPath)
	if f.failOn != "" && strings.HasSuffix(name, f.failOn) {
		return "", errors.New("bucket unreachable")
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	if f.uploaded == nil {
		f.uploaded = map[string]string{}
	}
	f.uploaded[name] = string(data)
	return "https://objects.example.com/" + f.bucket + "/" + name, nil
}

func helloWorld() transcript.Result {
	return transcript.Result{
		Language: "en",
		Segments: []transcript.Segment{
			{Start: 0, End: 1.2, Text: "hello"},
			{Start: 1.2, End: 2.0, Text: "world"},
		},
	}
}

func assemble(t *testing.T, result transcript.Result, wants output.Wants) output.Outputs {
	t.Helper()
	outs, err := output.Assemble(result, wants, false)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return outs
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":         ModeInline,
		"direct":   ModeInline,
		"Inline":   ModeInline,
		"cloud":    ModeUploaded,
		"uploaded": ModeUploaded,
	}
	for input, want := range tests {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseMode("email"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInlineTextOnly(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver(dir, nil, nil)
	outs := assemble(t, helloWorld(), output.Wants{Text: true})

	result, err := resolver.Deliver(context.Background(), outs, ModeInline, "job-1")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if result.Text == nil || *result.Text != "hello world" {
		t.Fatalf("text = %v", result.Text)
	}
	if result.TextURL != nil || result.SRTURL != nil || result.SegmentsURL != nil {
		t.Fatalf("inline result must not carry urls: %+v", result)
	}
	if result.SRT != nil || result.Segments != nil {
		t.Fatalf("unrequested kinds must stay empty: %+v", result)
	}
	if result.DetectedLanguage != "en" {
		t.Fatalf("language = %q", result.DetectedLanguage)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("inline delivery wrote files: %v", names)
	}
}

func TestInlineZeroSegmentsEncodesEmptyList(t *testing.T) {
	resolver := NewResolver(t.TempDir(), nil, nil)
	outs := assemble(t, transcript.Result{Language: "en"}, output.Wants{Text: true, SRT: true, Segments: true})

	result, err := resolver.Deliver(context.Background(), outs, ModeInline, "job-2")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"text":""`, `"srt":""`, `"segments":[]`, `"text_url":null`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("encoded result %s missing %s", data, want)
		}
	}
}

func TestUploadedSRT(t *testing.T) {
	dir := t.TempDir()
	uploader := &fakeUploader{bucket: "media-bucket"}
	resolver := NewResolver(dir, uploader, nil)
	outs := assemble(t, helloWorld(), output.Wants{SRT: true})

	result, err := resolver.Deliver(context.Background(), outs, ModeUploaded, "job-3")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	url := result.URL(output.KindSRT)
	if !strings.Contains(url, "media-bucket") {
		t.Fatalf("srt url %q does not name the bucket", url)
	}
	if result.SRT != nil || result.Text != nil || result.Segments != nil {
		t.Fatalf("uploaded result must not carry content: %+v", result)
	}
	if !strings.HasPrefix(uploader.uploaded["job-3.srt"], "1\n00:00:00,000 --> 00:00:01,200\nhello") {
		t.Fatalf("uploaded srt = %q", uploader.uploaded["job-3.srt"])
	}
	if _, err := os.Stat(filepath.Join(dir, "job-3.srt")); !os.IsNotExist(err) {
		t.Fatalf("artifact should be removed, stat err = %v", err)
	}
}

func TestUploadedSkipsEmptyArtifacts(t *testing.T) {
	uploader := &fakeUploader{bucket: "b"}
	resolver := NewResolver(t.TempDir(), uploader, nil)
	outs := assemble(t, transcript.Result{Language: "fr"}, output.Wants{Text: true, SRT: true, Segments: true})

	result, err := resolver.Deliver(context.Background(), outs, ModeUploaded, "job-4")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if result.TextURL != nil || result.SRTURL != nil {
		t.Fatalf("empty artifacts should not be uploaded: %+v", result)
	}
	if result.URL(output.KindSegments) == "" {
		t.Fatal("segments artifact should always be uploaded")
	}
	if uploader.uploaded["job-4.json"] != "[]" {
		t.Fatalf("segments body = %q", uploader.uploaded["job-4.json"])
	}
}

func TestUploadFailureIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	uploader := &fakeUploader{bucket: "b", failOn: ".srt"}
	resolver := NewResolver(dir, uploader, nil)
	outs := assemble(t, helloWorld(), output.Wants{Text: true, SRT: true, Segments: true})

	result, err := resolver.Deliver(context.Background(), outs, ModeUploaded, "job-5")
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if result.TextURL != nil {
		t.Fatalf("failed delivery must not return partial urls: %+v", result)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Fatalf("artifacts left behind: %v", names)
	}
}

func TestUploadedWithoutUploader(t *testing.T) {
	resolver := NewResolver(t.TempDir(), nil, nil)
	outs := assemble(t, helloWorld(), output.Wants{Text: true})
	_, err := resolver.Deliver(context.Background(), outs, ModeUploaded, "job-6")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUploadedRejectsUnsafeJobID(t *testing.T) {
	resolver := NewResolver(t.TempDir(), &fakeUploader{bucket: "b"}, nil)
	outs := assemble(t, helloWorld(), output.Wants{Text: true})
	if _, err := resolver.Deliver(context.Background(), outs, ModeUploaded, "../escape"); !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}
