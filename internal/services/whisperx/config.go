package whisperx

import "strconv"

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the Whisper model size (e.g. "base").
	Model string
	// Device is "cpu" or "cuda".
	Device string
	// ComputeType is the CTranslate2 precision (e.g. "int8").
	ComputeType string
	BeamSize    int
	BatchSize   int
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// UVXBinary overrides the uvx executable.
	UVXBinary string
}

// WhisperX configuration constants.
const (
	DefaultModel       = "base"
	DefaultBeamSize    = 3
	DefaultBatchSize   = 4
	CUDAIndexURL       = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL       = "https://pypi.org/simple"
	OutputFormat       = "json"
	CPUDevice          = "cpu"
	CUDADevice         = "cuda"
	CPUComputeType     = "int8"
	VADMethodPyannote  = "pyannote"
	VADMethodSilero    = "silero"
	UVXCommand         = "uvx"
	engineName         = "whisperx"
	torchWeightsEnvVar = "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD"
)

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Device == "" {
		c.Device = CPUDevice
	}
	if c.ComputeType == "" {
		c.ComputeType = CPUComputeType
	}
	if c.BeamSize <= 0 {
		c.BeamSize = DefaultBeamSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.VADMethod == "" {
		c.VADMethod = VADMethodSilero
	}
	if c.UVXBinary == "" {
		c.UVXBinary = UVXCommand
	}
	return c
}

func itoa(v int) string { return strconv.Itoa(v) }
