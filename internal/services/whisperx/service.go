package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	langpkg "transcriber/internal/language"
	"transcriber/internal/logging"
	"transcriber/internal/scratch"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

const cancelWaitDelay = 2 * time.Second

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
}

var _ transcript.Engine = (*Service)(nil)

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(logger, engineName),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Name identifies the engine in logs and job records.
func (s *Service) Name() string { return engineName }

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// uvx spawns python children that inherit the output pipe; kill the
	// whole group on cancel so Wait is not held open by grandchildren.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = cancelWaitDelay

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv(torchWeightsEnvVar) == "" {
		cmd.Env = append(os.Environ(), torchWeightsEnvVar+"=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s interrupted: %w", name, ctxErr)
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs WhisperX on source and returns its segments in model order.
func (s *Service) Transcribe(ctx context.Context, source string, opts transcript.Options) (transcript.Result, error) {
	if strings.TrimSpace(source) == "" {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", "whisperx", "source path required", nil)
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(source), scratch.EngineDirPattern)
	if err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", "whisperx", "create output dir", err)
	}
	defer func() {
		if err := os.RemoveAll(outputDir); err != nil {
			s.logger.Warn("whisperx output dir not removed", logging.String("path", outputDir), logging.Error(err))
		}
	}()

	logger := logging.WithContext(ctx, s.logger)
	args := s.buildArgs(source, outputDir, opts)
	logger.Info("whisperx started",
		logging.String("model", s.cfg.Model),
		logging.String("task", string(opts.Task)),
		logging.String("language_hint", opts.Language),
		logging.Bool("word_timestamps", opts.WordTimestamps),
	)
	started := time.Now()
	if err := s.run(ctx, s.cfg.UVXBinary, args...); err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", "whisperx", "run", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	payload, err := LoadPayload(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", "whisperx", "read output", err)
	}
	result := payload.toResult(opts.WordTimestamps)
	logger.Info("whisperx completed",
		logging.Int("segments", len(result.Segments)),
		logging.String("detected_language", result.Language),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return result, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string, opts transcript.Options) []string {
	args := make([]string, 0, 40)

	if s.cfg.Device == CUDADevice {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	task := opts.Task
	if task == "" {
		task = transcript.TaskTranscribe
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--task", string(task),
		"--batch_size", itoa(s.cfg.BatchSize),
		"--beam_size", itoa(s.cfg.BeamSize),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--device", s.cfg.Device,
		"--compute_type", s.cfg.ComputeType,
		"--vad_method", s.cfg.VADMethod,
	)
	if s.cfg.VADMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if lang := langpkg.ToISO2(opts.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if !opts.WordTimestamps {
		args = append(args, "--no_align")
	}
	return args
}

// Word represents a single word with timing from WhisperX output. Alignment
// leaves start/end unset for tokens it cannot place (e.g. numerals).
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Payload is the JSON structure from WhisperX output.
type Payload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadPayload loads a WhisperX JSON file.
func LoadPayload(jsonPath string) (Payload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Payload{}, err
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload, nil
}

func (p Payload) toResult(includeWords bool) transcript.Result {
	segments := make([]transcript.Segment, 0, len(p.Segments))
	for _, seg := range p.Segments {
		out := transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
		if includeWords {
			for _, w := range seg.Words {
				if w.Start == nil || w.End == nil {
					continue
				}
				out.Words = append(out.Words, transcript.Word{Start: *w.Start, End: *w.End, Text: w.Word})
			}
		}
		segments = append(segments, out)
	}
	return transcript.Result{Segments: segments, Language: p.Language}
}
