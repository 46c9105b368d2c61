package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transcriber/internal/fetcher"
	"transcriber/internal/services"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetchUsesURLExtension(t *testing.T) {
	payload := strings.Repeat("RIFF", 10000)
	var heads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads++
		}
		if r.Header.Get("User-Agent") != "transcriber/test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := fetcher.New(dir, fetcher.WithUserAgent("transcriber/test"))
	path, err := f.Fetch(context.Background(), server.URL+"/media/a.WAV?sig=1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".wav" {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != payload {
		t.Fatalf("unexpected contents (len %d) err=%v", len(data), err)
	}
	if heads != 0 {
		t.Fatalf("expected no HEAD probe when URL has an extension, got %d", heads)
	}
}

func TestFetchProbesContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("ID3"))
		}
	}))
	defer server.Close()

	path, err := fetcher.New(t.TempDir()).Fetch(context.Background(), server.URL+"/stream")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Ext(path) != ".mp3" {
		t.Fatalf("expected .mp3 from content type, got %q", path)
	}
}

func TestFetchFallsBackToBin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-unknown-thing")
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	path, err := fetcher.New(t.TempDir()).Fetch(context.Background(), server.URL+"/download")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Ext(path) != ".bin" {
		t.Fatalf("expected .bin fallback, got %q", path)
	}
}

func TestFetchNonSuccessStatusLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := fetcher.New(dir).Fetch(context.Background(), server.URL+"/a.wav")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status in error, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected empty scratch dir, found %v", names)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/a.wav"
	server.Close()

	dir := t.TempDir()
	_, err := fetcher.New(dir).Fetch(context.Background(), url)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected empty scratch dir, found %v", names)
	}
}

func TestFetchTruncatedBodyRemovesPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := fetcher.New(dir).Fetch(context.Background(), server.URL+"/a.wav")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Fatalf("expected partial file removed, found %v", names)
	}
}

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	_, err := fetcher.New(t.TempDir()).Fetch(context.Background(), "ftp://example.com/a.wav")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestExtensionForContentType(t *testing.T) {
	tests := map[string]string{
		"audio/x-wav":               ".wav",
		"video/mp4; codecs=avc1":    ".mp4",
		"AUDIO/OGG":                 ".ogg",
		"":                          "",
		"application/x-never-known": "",
	}
	for input, want := range tests {
		if got := fetcher.ExtensionForContentType(input); got != want {
			t.Errorf("ExtensionForContentType(%q) = %q, want %q", input, got, want)
		}
	}
}
