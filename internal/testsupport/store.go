package testsupport

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"transcriber/internal/config"
	"transcriber/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// EnqueueJob inserts a queued job for sourceURL with a fresh id.
func EnqueueJob(t testing.TB, store *queue.Store, sourceURL, requestJSON string) *queue.Job {
	t.Helper()

	job, err := store.Enqueue(context.Background(), queue.NewJob{
		ID:          uuid.NewString(),
		SourceURL:   sourceURL,
		RequestJSON: requestJSON,
	})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}
