package daemonrun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transcriber/internal/logging"
	"transcriber/internal/services"
	"transcriber/internal/services/openai"
	"transcriber/internal/services/whisperx"
	"transcriber/internal/testsupport"
)

func TestEngineSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	cfg.Transcription.Engine = "whisperx"
	if _, ok := Engine(cfg, nil).(*whisperx.Service); !ok {
		t.Fatal("expected whisperx engine")
	}
	cfg.Transcription.Engine = "openai"
	if _, ok := Engine(cfg, nil).(*openai.Client); !ok {
		t.Fatal("expected openai engine")
	}
}

func TestSelectStorageRejectsIncompleteCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.MinIO.AccessKey = ""

	_, err := SelectStorage(context.Background(), cfg, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunAbortsOnStorageConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.MinIO.SecretKey = ""

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := Run(ctx, cfg, Options{LogLevel: "error"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, statErr := os.Stat(cfg.QueueDBPath()); !os.IsNotExist(statErr) {
		t.Fatalf("queue database should not be created, stat err = %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.StateDir, "transcriber.pid")); !os.IsNotExist(statErr) {
		t.Fatal("pid file should not be written")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{LogLevel: "error"}) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(cfg.Paths.StateDir, "transcriber.pid")); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func snapshotEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestDependencySnapshotWarnsOnMissingBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.Engine = "whisperx"
	cfg.Transcription.UVXBinary = filepath.Join(t.TempDir(), "missing-uvx")

	var buf bytes.Buffer
	logDependencySnapshot(slog.New(slog.NewJSONHandler(&buf, nil)), cfg)

	entries := snapshotEntries(t, &buf)
	if len(entries) < 2 {
		t.Fatalf("expected snapshot and warning, got %v", entries)
	}
	if entries[0]["uvx_available"] != false {
		t.Fatalf("uvx_available = %v", entries[0]["uvx_available"])
	}
	warn := entries[len(entries)-1]
	if warn[logging.FieldEventType] != "dependency_missing" {
		t.Fatalf("unexpected warning entry: %v", warn)
	}
	if missing, _ := warn["missing"].(string); !strings.Contains(missing, "uvx") {
		t.Fatalf("missing = %q, want uvx listed", missing)
	}
}

func TestDependencySnapshotQuietWhenBinariesPresent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("uvx", "ffmpeg"))
	cfg.Transcription.Engine = "whisperx"
	cfg.Transcription.UVXBinary = "uvx"

	var buf bytes.Buffer
	logDependencySnapshot(slog.New(slog.NewJSONHandler(&buf, nil)), cfg)

	entries := snapshotEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected only the snapshot entry, got %v", entries)
	}
	if entries[0]["uvx_available"] != true || entries[0]["ffmpeg_available"] != true {
		t.Fatalf("unexpected availability: %v", entries[0])
	}
}
