package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIKey     string `toml:"api_key"`
}

// GCPStorage holds Google Cloud Storage settings.
type GCPStorage struct {
	// Credentials is either the service-account JSON document or a path to it.
	Credentials string `toml:"credentials"`
	Bucket      string `toml:"bucket"`
}

// S3Storage holds settings for AWS S3 and S3-compatible services such as
// DigitalOcean Spaces.
type S3Storage struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
}

// MinIOStorage holds settings for self-hosted path-style object stores.
type MinIOStorage struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Secure    bool   `toml:"secure"`
	Region    string `toml:"region"`
}

// Storage selects and configures the object storage backend used for
// uploaded delivery.
type Storage struct {
	Provider string       `toml:"provider"`
	GCP      GCPStorage   `toml:"gcp"`
	S3       S3Storage    `toml:"s3"`
	MinIO    MinIOStorage `toml:"minio"`
}

// Transcription configures the speech-to-text engine. The fidelity settings
// are fixed per process; requests only choose task, language, and word timing.
type Transcription struct {
	Engine      string `toml:"engine"`
	Model       string `toml:"model"`
	Device      string `toml:"device"`
	ComputeType string `toml:"compute_type"`
	BeamSize    int    `toml:"beam_size"`
	BatchSize   int    `toml:"batch_size"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
	UVXBinary   string `toml:"uvx_binary"`

	OpenAIBaseURL        string `toml:"openai_base_url"`
	OpenAIAPIKey         string `toml:"openai_api_key"`
	OpenAIModel          string `toml:"openai_model"`
	OpenAITimeoutSeconds int    `toml:"openai_timeout_seconds"`
}

// Fetch configures media acquisition.
type Fetch struct {
	UserAgent      string `toml:"user_agent"`
	ChunkSizeBytes int    `toml:"chunk_size_bytes"`
	ProbeTimeout   int    `toml:"probe_timeout"`
}

// Workflow contains configuration for the job dispatcher.
type Workflow struct {
	Workers            int `toml:"workers"`
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	WebhookTimeout     int `toml:"webhook_timeout"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Sweep configures the periodic scratch directory cleanup.
type Sweep struct {
	Enabled          bool `toml:"enabled"`
	RetentionSeconds int  `toml:"retention_seconds"`
	IntervalSeconds  int  `toml:"interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the transcriber.
//
// Configuration sections by subsystem:
//   - Paths: scratch/state directories, API bind address and key
//   - Storage: provider selection plus GCP, S3, and MinIO payloads
//   - Transcription: engine selection and fixed fidelity settings
//   - Fetch: media download tuning
//   - Workflow: dispatcher worker count and polling intervals
//   - Sweep: scratch retention
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Storage       Storage       `toml:"storage"`
	Transcription Transcription `toml:"transcription"`
	Fetch         Fetch         `toml:"fetch"`
	Workflow      Workflow      `toml:"workflow"`
	Sweep         Sweep         `toml:"sweep"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/transcriber/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("transcriber.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon and CLI write to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the location of the job queue database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "transcriber.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c Config) Redacted() Config {
	mask := func(value string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return "********"
	}
	c.Paths.APIKey = mask(c.Paths.APIKey)
	c.Storage.GCP.Credentials = mask(c.Storage.GCP.Credentials)
	c.Storage.S3.SecretKey = mask(c.Storage.S3.SecretKey)
	c.Storage.MinIO.SecretKey = mask(c.Storage.MinIO.SecretKey)
	c.Transcription.HFToken = mask(c.Transcription.HFToken)
	c.Transcription.OpenAIAPIKey = mask(c.Transcription.OpenAIAPIKey)
	return c
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
