package config

const (
	defaultScratchDir         = "~/.local/share/transcriber/scratch"
	defaultStateDir           = "~/.local/share/transcriber"
	defaultLogDir             = "~/.local/share/transcriber/logs"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultStorageProvider    = ""
	defaultMinIOEndpoint      = "http://localhost:9000"
	defaultMinIOBucket        = "default"
	defaultMinIOSecure        = true
	defaultEngine             = "whisperx"
	defaultModel              = "base"
	defaultDevice             = "cpu"
	defaultComputeType        = "int8"
	defaultBeamSize           = 3
	defaultBatchSize          = 4
	defaultVADMethod          = "silero"
	defaultUVXBinary          = "uvx"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "whisper-1"
	defaultOpenAITimeout      = 600
	defaultFetchUserAgent     = "transcriber/dev"
	defaultFetchChunkSize     = 8192
	defaultFetchProbeTimeout  = 10
	defaultWorkers            = 2
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10
	defaultWebhookTimeout     = 15
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 600
	defaultSweepRetention     = 3600
	defaultSweepInterval      = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Storage: Storage{
			Provider: defaultStorageProvider,
			MinIO: MinIOStorage{
				Secure: defaultMinIOSecure,
			},
		},
		Transcription: Transcription{
			Engine:               defaultEngine,
			Model:                defaultModel,
			Device:               defaultDevice,
			ComputeType:          defaultComputeType,
			BeamSize:             defaultBeamSize,
			BatchSize:            defaultBatchSize,
			VADMethod:            defaultVADMethod,
			UVXBinary:            defaultUVXBinary,
			OpenAIBaseURL:        defaultOpenAIBaseURL,
			OpenAIModel:          defaultOpenAIModel,
			OpenAITimeoutSeconds: defaultOpenAITimeout,
		},
		Fetch: Fetch{
			UserAgent:      defaultFetchUserAgent,
			ChunkSizeBytes: defaultFetchChunkSize,
			ProbeTimeout:   defaultFetchProbeTimeout,
		},
		Workflow: Workflow{
			Workers:            defaultWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			WebhookTimeout:     defaultWebhookTimeout,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Sweep: Sweep{
			Enabled:          true,
			RetentionSeconds: defaultSweepRetention,
			IntervalSeconds:  defaultSweepInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
