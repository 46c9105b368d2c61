package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"transcriber/internal/config"
	"transcriber/internal/daemon"
	"transcriber/internal/deps"
	"transcriber/internal/logging"
	"transcriber/internal/pipeline"
	"transcriber/internal/preflight"
	"transcriber/internal/queue"
	"transcriber/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the transcriber daemon runtime loop. It returns when the context
// is cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logDependencySnapshot(logger, cfg)

	provider, err := SelectStorage(signalCtx, cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "storage configuration rejected", "storage_config_invalid",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set the provider credentials in [storage] or the environment"),
			logging.String(logging.FieldImpact, "daemon not started"),
		)
		return err
	}
	defer provider.Close()

	pidPath := filepath.Join(cfg.Paths.StateDir, "transcriber.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	orchestrator := Orchestrator(cfg, Engine(cfg, logger), provider, logger,
		pipeline.WithStateObserver(workflow.StageRecorder(store, logger)))
	manager := workflow.NewManager(cfg, store, orchestrator, logger)

	d, err := daemon.New(cfg, store, logger, manager, daemon.WithStorageLabel(provider.Descriptor().String()))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the lock file and queue database access"),
			logging.String(logging.FieldImpact, "jobs will not be processed"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("transcriber daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("engine", cfg.Transcription.Engine),
		logging.String("storage_provider", cfg.Storage.Provider),
		logging.Bool("api_enabled", strings.TrimSpace(cfg.Paths.APIBind) != ""),
		logging.Bool("auth_enabled", strings.TrimSpace(cfg.Paths.APIKey) != ""),
		logging.Int("workers", cfg.Workflow.Workers),
	}
	statuses := preflight.CheckSystemDeps(cfg)
	for _, status := range statuses {
		attrs = append(attrs, logging.Bool(strings.ToLower(status.Name)+"_available", status.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logging.WarnWithContext(logger, "required dependencies missing", "dependency_missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldErrorHint, "install the missing binaries or run transcriber status"),
			logging.String(logging.FieldImpact, "transcription jobs will fail"),
		)
	}
}
