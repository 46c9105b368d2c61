package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"transcriber/internal/config"
	"transcriber/internal/delivery"
	"transcriber/internal/logging"
	"transcriber/internal/notifications"
	"transcriber/internal/pipeline"
	"transcriber/internal/queue"
)

// Runner executes one job to a terminal state.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (delivery.Result, error)
}

// Manager coordinates queue processing across worker goroutines.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	runner       Runner
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration
	retryDelay   time.Duration
	workers      int

	heartbeat *HeartbeatMonitor

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
	active  map[string]string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier replaces the webhook notifier.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithPollInterval overrides the idle poll interval, mainly for tests.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger, opts ...ManagerOption) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:          cfg,
		store:        store,
		runner:       runner,
		logger:       logger,
		notifier:     notifications.NewService(cfg),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		workers:      cfg.Workflow.Workers,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		active: make(map[string]string),
	}
	if m.workers <= 0 {
		m.workers = 1
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StageRecorder returns a pipeline observer that persists each non-terminal
// state as the job's stage. Terminal states are written by the manager.
func StageRecorder(store *queue.Store, logger *slog.Logger) pipeline.StateObserver {
	logger = logging.NewComponentLogger(logger, "workflow")
	return func(ctx context.Context, jobID string, state pipeline.State) {
		if state.Terminal() {
			return
		}
		if err := store.UpdateStage(context.WithoutCancel(ctx), jobID, string(state)); err != nil {
			logging.WithContext(ctx, logger).Warn("stage update failed",
				logging.String(logging.FieldStage, string(state)),
				logging.Error(err),
			)
		}
	}
}
