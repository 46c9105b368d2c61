package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"testing"
	"time"

	"transcriber/internal/delivery"
	"transcriber/internal/notifications"
	"transcriber/internal/pipeline"
	"transcriber/internal/queue"
	"transcriber/internal/services"
	"transcriber/internal/testsupport"
	"transcriber/internal/workflow"
)

type stubRunner struct {
	mu   sync.Mutex
	seen []pipeline.Request
	run  func(pipeline.Request) (delivery.Result, error)
}

func (s *stubRunner) Run(_ context.Context, req pipeline.Request) (delivery.Result, error) {
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()
	return s.run(req)
}

// processRunner blocks on a real subprocess the way the whisperx engine does
// and reports its exit as an engine failure rather than a cancellation.
type processRunner struct {
	started chan struct{}
}

func (p *processRunner) Run(ctx context.Context, _ pipeline.Request) (delivery.Result, error) {
	close(p.started)
	if err := exec.CommandContext(ctx, "sleep", "5").Run(); err != nil {
		return delivery.Result{}, services.Wrap(services.ErrTranscription, "transcribing", "whisperx", "run", err)
	}
	return delivery.Result{}, nil
}

type webhookSink struct {
	mu       sync.Mutex
	payloads []notifications.Payload
}

func (w *webhookSink) server(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var payload notifications.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode webhook: %v", err)
		}
		w.mu.Lock()
		w.payloads = append(w.payloads, payload)
		w.mu.Unlock()
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func (w *webhookSink) snapshot() []notifications.Payload {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]notifications.Payload(nil), w.payloads...)
}

func requestJSON(t *testing.T, req pipeline.Request) string {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func waitForTerminal(t *testing.T, store *queue.Store, id string) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal status", id)
	return nil
}

func startManager(t *testing.T, store *queue.Store, runner workflow.Runner) *workflow.Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(2))
	mgr := workflow.NewManager(cfg, store, runner, nil,
		workflow.WithPollInterval(10*time.Millisecond),
		workflow.WithNotifier(notifications.NewServiceWithClient(http.DefaultClient)),
	)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	return mgr
}

func TestManagerCompletesJobAndNotifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sink := &webhookSink{}
	hook := sink.server(t)

	text := "hello world"
	runner := &stubRunner{run: func(pipeline.Request) (delivery.Result, error) {
		return delivery.Result{Text: &text, DetectedLanguage: "en"}, nil
	}}

	job, err := store.Enqueue(context.Background(), queue.NewJob{
		ID:          "job-ok",
		ClientID:    "client-1",
		SourceURL:   "https://example.com/a.wav",
		RequestJSON: requestJSON(t, pipeline.Request{SourceURL: "https://example.com/a.wav"}),
		WebhookURL:  hook.URL,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	startManager(t, store, runner)

	done := waitForTerminal(t, store, job.ID)
	if done.Status != queue.StatusCompleted {
		t.Fatalf("status = %s (%s)", done.Status, done.ErrorMessage)
	}
	var result delivery.Result
	if err := json.Unmarshal([]byte(done.ResultJSON), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Text == nil || *result.Text != "hello world" {
		t.Fatalf("stored result = %s", done.ResultJSON)
	}

	runner.mu.Lock()
	if len(runner.seen) != 1 || runner.seen[0].JobID != "job-ok" {
		t.Fatalf("runner saw %+v", runner.seen)
	}
	runner.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	payloads := sink.snapshot()
	if len(payloads) != 1 {
		t.Fatalf("expected one webhook, got %d", len(payloads))
	}
	if payloads[0].Code != 200 || payloads[0].JobID != "job-ok" || payloads[0].ID != "client-1" {
		t.Fatalf("unexpected webhook payload: %+v", payloads[0])
	}
}

func TestManagerRecordsStageFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sink := &webhookSink{}
	hook := sink.server(t)

	runner := &stubRunner{run: func(req pipeline.Request) (delivery.Result, error) {
		cause := services.Wrap(services.ErrFetch, "fetching", "download", "status 404", nil)
		return delivery.Result{}, &services.StageError{JobID: req.JobID, Stage: "fetching", Err: cause}
	}}

	job, err := store.Enqueue(context.Background(), queue.NewJob{
		ID:          "job-bad",
		SourceURL:   "https://example.com/missing.wav",
		RequestJSON: requestJSON(t, pipeline.Request{SourceURL: "https://example.com/missing.wav"}),
		WebhookURL:  hook.URL,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	startManager(t, store, runner)

	failed := waitForTerminal(t, store, job.ID)
	if failed.Status != queue.StatusFailed {
		t.Fatalf("status = %s", failed.Status)
	}
	if failed.ErrorKind != services.KindFetch || failed.FailedStage != "fetching" {
		t.Fatalf("kind/stage = %q/%q", failed.ErrorKind, failed.FailedStage)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	payloads := sink.snapshot()
	if len(payloads) != 1 || payloads[0].Code != 500 {
		t.Fatalf("unexpected webhook payloads: %+v", payloads)
	}
}

func TestManagerRejectsUndecodableRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := &stubRunner{run: func(pipeline.Request) (delivery.Result, error) {
		return delivery.Result{}, errors.New("should not run")
	}}

	job := testsupport.EnqueueJob(t, store, "https://example.com/a.wav", "{not json")
	startManager(t, store, runner)

	failed := waitForTerminal(t, store, job.ID)
	if failed.Status != queue.StatusFailed || failed.ErrorKind != services.KindValidation {
		t.Fatalf("unexpected job: %+v", failed)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.seen) != 0 {
		t.Fatal("runner should not be called for an undecodable request")
	}
}

func TestStageRecorderPersistsStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.EnqueueJob(t, store, "https://example.com/a.wav", "{}")
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	record := workflow.StageRecorder(store, nil)
	record(ctx, job.ID, pipeline.StateTranscribing)
	record(ctx, job.ID, pipeline.StateCompleted)

	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != string(pipeline.StateTranscribing) {
		t.Fatalf("stage = %q", got.Stage)
	}
}

func TestManagerStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := &stubRunner{run: func(pipeline.Request) (delivery.Result, error) { return delivery.Result{}, nil }}

	mgr := startManager(t, store, runner)
	status := mgr.Status(context.Background())
	if !status.Running || status.Workers != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
	mgr.Stop()
	if mgr.Status(context.Background()).Running {
		t.Fatal("expected stopped manager")
	}
}

func TestManagerStopRecordsDaemonStopForEngineFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	runner := &processRunner{started: make(chan struct{})}

	_, err := store.Enqueue(context.Background(), queue.NewJob{
		ID:          "job-stop",
		ClientID:    "client-1",
		SourceURL:   "https://example.com/a.wav",
		RequestJSON: requestJSON(t, pipeline.Request{SourceURL: "https://example.com/a.wav"}),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	mgr := startManager(t, store, runner)

	select {
	case <-runner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never claimed")
	}

	started := time.Now()
	mgr.Stop()
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("Stop took %s, want prompt return", elapsed)
	}

	job, err := store.Get(context.Background(), "job-stop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.ErrorMessage != queue.DaemonStopReason {
		t.Fatalf("error message = %q, want %q", job.ErrorMessage, queue.DaemonStopReason)
	}
}
