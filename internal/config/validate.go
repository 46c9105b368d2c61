package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable. Storage credentials are
// checked when a provider is selected, not here.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateSweep(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Provider {
	case "", "gcp", "s3", "minio":
		return nil
	default:
		return fmt.Errorf("storage.provider %q is not one of gcp, s3, minio", c.Storage.Provider)
	}
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Engine {
	case "whisperx", "openai":
	default:
		return fmt.Errorf("transcription.engine %q is not one of whisperx, openai", c.Transcription.Engine)
	}
	if c.Transcription.BeamSize <= 0 {
		return errors.New("transcription.beam_size must be positive")
	}
	if c.Transcription.BatchSize <= 0 {
		return errors.New("transcription.batch_size must be positive")
	}
	if c.Transcription.Engine == "openai" && c.Transcription.OpenAITimeoutSeconds <= 0 {
		return errors.New("transcription.openai_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.workers":              c.Workflow.Workers,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.webhook_timeout":      c.Workflow.WebhookTimeout,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
		"fetch.chunk_size_bytes":        c.Fetch.ChunkSizeBytes,
		"fetch.probe_timeout":           c.Fetch.ProbeTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateSweep() error {
	if !c.Sweep.Enabled {
		return nil
	}
	if c.Sweep.RetentionSeconds <= 0 {
		return errors.New("sweep.retention_seconds must be positive")
	}
	if c.Sweep.IntervalSeconds <= 0 {
		return errors.New("sweep.interval_seconds must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
