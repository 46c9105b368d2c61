package scratch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"transcriber/internal/logging"
	"transcriber/internal/scratch"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSetReleaseRemovesTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.txt")
	untracked := filepath.Join(dir, "other.txt")
	for _, p := range []string{a, b, untracked} {
		touch(t, p)
	}

	var set scratch.Set
	set.Track(a)
	set.Track(b)
	set.Track(a)
	set.Track(filepath.Join(dir, "never-created.srt"))

	if err := set.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	for _, p := range []string{a, b} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", p, err)
		}
	}
	if _, err := os.Stat(untracked); err != nil {
		t.Fatalf("untracked file should survive: %v", err)
	}
	if err := set.Release(); err != nil {
		t.Fatalf("second Release should be a no-op: %v", err)
	}
}

func TestSetRemoveStopsTracking(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "job.srt")
	touch(t, p)
	var set scratch.Set
	set.Track(p)
	if err := set.Remove(p); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}

	touch(t, p)
	if err := set.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("file recreated after Remove should not be released: %v", err)
	}
}

func TestArtifactPath(t *testing.T) {
	got, err := scratch.ArtifactPath("/tmp/scratch", "job-1", ".srt")
	if err != nil || got != filepath.Join("/tmp/scratch", "job-1.srt") {
		t.Fatalf("unexpected path %q err=%v", got, err)
	}
	got, err = scratch.ArtifactPath("/tmp/scratch", "job-1", "json")
	if err != nil || got != filepath.Join("/tmp/scratch", "job-1.json") {
		t.Fatalf("expected dot to be added, got %q err=%v", got, err)
	}
	for _, bad := range []string{"", "../etc/passwd", ".hidden", "a/b", `a\b`} {
		if _, err := scratch.ArtifactPath("/tmp/scratch", bad, ".txt"); err == nil {
			t.Errorf("expected error for job id %q", bad)
		}
	}
}

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.wav")
	fresh := filepath.Join(dir, "fresh.wav")
	touch(t, stale)
	touch(t, fresh)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	now := time.Now()
	old := now.Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	result, err := scratch.Sweep(logging.NewNop(), dir, time.Hour, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Removed != 1 || result.Kept != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh file kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); err != nil {
		t.Fatalf("expected directory untouched: %v", err)
	}
}

func TestSweepReclaimsStaleEngineDirs(t *testing.T) {
	dir := t.TempDir()
	staleEngine := filepath.Join(dir, ".whisperx-123")
	freshEngine := filepath.Join(dir, ".whisperx-456")
	staleOther := filepath.Join(dir, "keep-me")
	for _, d := range []string{staleEngine, freshEngine, staleOther} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	touch(t, filepath.Join(staleEngine, "audio.json"))
	now := time.Now()
	old := now.Add(-2 * time.Hour)
	for _, d := range []string{staleEngine, staleOther} {
		if err := os.Chtimes(d, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	result, err := scratch.Sweep(logging.NewNop(), dir, time.Hour, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Removed != 1 || result.Kept != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(staleEngine); !os.IsNotExist(err) {
		t.Fatalf("expected stale engine dir removed, stat err=%v", err)
	}
	if _, err := os.Stat(freshEngine); err != nil {
		t.Fatalf("expected fresh engine dir kept: %v", err)
	}
	if _, err := os.Stat(staleOther); err != nil {
		t.Fatalf("expected unrelated dir untouched: %v", err)
	}
}

func TestSweepMissingDirIsNoop(t *testing.T) {
	result, err := scratch.Sweep(nil, filepath.Join(t.TempDir(), "missing"), time.Hour, time.Now())
	if err != nil || result.Removed != 0 {
		t.Fatalf("expected no-op, got %+v err=%v", result, err)
	}
}
