package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"transcriber/internal/delivery"
	"transcriber/internal/language"
	"transcriber/internal/logging"
	"transcriber/internal/output"
	"transcriber/internal/scratch"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

// Fetcher retrieves source media into scratch storage.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (string, error)
}

// Deliverer hands assembled outputs to the caller.
type Deliverer interface {
	Deliver(ctx context.Context, outs output.Outputs, mode delivery.Mode, jobID string) (delivery.Result, error)
}

// StateObserver is told about every state a job enters, terminal ones included.
type StateObserver func(ctx context.Context, jobID string, state State)

// Orchestrator sequences the pipeline stages. It holds no per-job state and
// may run many jobs concurrently.
type Orchestrator struct {
	fetcher   Fetcher
	engine    transcript.Engine
	deliverer Deliverer
	logger    *slog.Logger
	observers []StateObserver
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithStateObserver registers fn for state notifications.
func WithStateObserver(fn StateObserver) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

// New builds an orchestrator.
func New(fetcher Fetcher, engine transcript.Engine, deliverer Deliverer, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		engine:    engine,
		deliverer: deliverer,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes req to a terminal state. Failures are returned as
// *services.StageError wrapping the classified cause.
func (o *Orchestrator) Run(ctx context.Context, req Request) (delivery.Result, error) {
	normalized, err := req.Normalize()
	if err != nil {
		o.logger.Warn("job rejected",
			logging.String(logging.FieldJobID, req.JobID),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
		return delivery.Result{}, &services.StageError{JobID: req.JobID, Stage: string(StateReceived), Err: err}
	}
	req = normalized
	ctx = services.WithJobID(ctx, req.JobID)

	j := &job{o: o, ctx: ctx, req: req, state: StateReceived, started: time.Now()}
	j.notify(StateReceived)

	var files scratch.Set
	defer func() {
		if err := files.Release(); err != nil {
			logging.WarnWithContext(j.logger(), "scratch cleanup failed", "scratch_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "files remain until the next sweep"),
			)
		}
	}()

	result, err := j.run(&files)
	if err != nil {
		return delivery.Result{}, j.fail(err)
	}
	j.enter(StateCompleted)
	j.logger().Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("delivery", string(req.Delivery)),
		logging.String("detected_language", result.DetectedLanguage),
		logging.Duration("elapsed", time.Since(j.started).Round(time.Millisecond)),
	)
	return result, nil
}

type job struct {
	o       *Orchestrator
	ctx     context.Context
	req     Request
	state   State
	started time.Time
}

func (j *job) run(files *scratch.Set) (delivery.Result, error) {
	j.enter(StateFetching)
	sourcePath, err := j.o.fetcher.Fetch(j.stageCtx(), j.req.SourceURL)
	if err != nil {
		return delivery.Result{}, err
	}
	files.Track(sourcePath)

	j.enter(StateTranscribing)
	transcribed, err := j.o.engine.Transcribe(j.stageCtx(), sourcePath, transcript.Options{
		Task:           j.req.Task,
		Language:       j.req.Language,
		WordTimestamps: j.req.WordTimestamps,
	})
	if err != nil {
		return delivery.Result{}, err
	}
	transcribed.Language = language.Detected(transcribed.Language, j.req.Language)
	j.logger().Info("transcription finished",
		logging.String("engine", j.o.engine.Name()),
		logging.Int("segments", len(transcribed.Segments)),
		logging.String("detected_language", transcribed.Language),
	)

	// The source is no longer needed; free the space before delivery.
	if err := files.Remove(sourcePath); err != nil {
		j.logger().Debug("source removal failed", logging.Error(err))
	}

	j.enter(StateAssembling)
	outs, err := output.Assemble(transcribed, j.req.Wants, j.req.WordTimestamps)
	if err != nil {
		return delivery.Result{}, err
	}

	j.enter(StateDelivering)
	return j.o.deliverer.Deliver(j.stageCtx(), outs, j.req.Delivery, j.req.JobID)
}

func (j *job) stageCtx() context.Context {
	return services.WithStage(j.ctx, string(j.state))
}

func (j *job) logger() *slog.Logger {
	return logging.WithContext(j.stageCtx(), j.o.logger)
}

func (j *job) enter(next State) {
	if !CanTransition(j.state, next) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", j.state, next))
	}
	j.state = next
	if !next.Terminal() {
		j.logger().Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	}
	j.notify(next)
}

func (j *job) notify(state State) {
	for _, fn := range j.o.observers {
		fn(j.ctx, j.req.JobID, state)
	}
}

// fail classifies err against the stage it happened in, records the failed
// transition, and logs it once.
func (j *job) fail(err error) error {
	stage := j.state
	if services.Kind(err) == services.KindInternal && !errors.Is(err, context.Canceled) {
		err = services.Wrap(markerFor(stage), string(stage), "run", "", err)
	}
	j.enter(StateFailed)
	logging.ErrorWithContext(j.logger(), "job failed", "job_failed",
		logging.String("failed_stage", string(stage)),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.Duration("elapsed", time.Since(j.started).Round(time.Millisecond)),
		logging.Error(err),
	)
	return &services.StageError{JobID: j.req.JobID, Stage: string(stage), Err: err}
}

func markerFor(state State) error {
	switch state {
	case StateFetching:
		return services.ErrFetch
	case StateTranscribing:
		return services.ErrTranscription
	case StateAssembling:
		return services.ErrAssembly
	case StateDelivering:
		return services.ErrDelivery
	default:
		return nil
	}
}
