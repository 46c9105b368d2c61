package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"transcriber/internal/config"
	"transcriber/internal/delivery"
	"transcriber/internal/fetcher"
	"transcriber/internal/pipeline"
	"transcriber/internal/services/openai"
	"transcriber/internal/services/whisperx"
	"transcriber/internal/storage"
	"transcriber/internal/transcript"
)

// Engine builds the transcription engine selected by configuration.
func Engine(cfg *config.Config, logger *slog.Logger) transcript.Engine {
	t := cfg.Transcription
	if t.Engine == "openai" {
		return openai.New(
			openai.WithBaseURL(t.OpenAIBaseURL),
			openai.WithAPIKey(t.OpenAIAPIKey),
			openai.WithModel(t.OpenAIModel),
			openai.WithTimeout(time.Duration(t.OpenAITimeoutSeconds)*time.Second),
			openai.WithLogger(logger),
		)
	}
	return whisperx.NewService(whisperx.Config{
		Model:       t.Model,
		Device:      t.Device,
		ComputeType: t.ComputeType,
		BeamSize:    t.BeamSize,
		BatchSize:   t.BatchSize,
		VADMethod:   t.VADMethod,
		HFToken:     t.HFToken,
		UVXBinary:   t.UVXBinary,
	}, logger)
}

// Fetcher builds the media fetcher writing into the scratch directory.
func Fetcher(cfg *config.Config, logger *slog.Logger) *fetcher.Fetcher {
	return fetcher.New(cfg.Paths.ScratchDir,
		fetcher.WithLogger(logger),
		fetcher.WithUserAgent(cfg.Fetch.UserAgent),
		fetcher.WithChunkSize(cfg.Fetch.ChunkSizeBytes),
		fetcher.WithProbeTimeout(time.Duration(cfg.Fetch.ProbeTimeout)*time.Second),
	)
}

// SelectStorage resolves and builds the configured storage provider.
// Incomplete credentials surface as services.ErrConfiguration.
func SelectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.Provider, error) {
	provider, err := storage.Select(ctx, cfg.Storage, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("select storage provider: %w", err)
	}
	return provider, nil
}

// Orchestrator wires fetcher, engine, and delivery into a job orchestrator.
// A nil provider leaves uploaded delivery unavailable.
func Orchestrator(cfg *config.Config, engine transcript.Engine, provider *storage.Provider, logger *slog.Logger, opts ...pipeline.Option) *pipeline.Orchestrator {
	var uploader delivery.Uploader
	if provider != nil {
		uploader = provider
	}
	resolver := delivery.NewResolver(cfg.Paths.ScratchDir, uploader, logger)
	return pipeline.New(Fetcher(cfg, logger), engine, resolver, logger, opts...)
}
