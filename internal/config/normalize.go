package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeFetch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIKey = envFallback(c.Paths.APIKey, "API_KEY")
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Provider = strings.ToLower(envFallback(c.Storage.Provider, "STORAGE_PROVIDER"))

	gcp := &c.Storage.GCP
	gcp.Credentials = envFallback(gcp.Credentials, "GCP_SA_CREDENTIALS")
	gcp.Bucket = envFallback(gcp.Bucket, "GCP_BUCKET_NAME")

	s3 := &c.Storage.S3
	s3.Endpoint = strings.TrimRight(envFallback(s3.Endpoint, "S3_ENDPOINT_URL"), "/")
	s3.AccessKey = envFallback(s3.AccessKey, "S3_ACCESS_KEY")
	s3.SecretKey = envFallback(s3.SecretKey, "S3_SECRET_KEY")
	s3.Bucket = envFallback(s3.Bucket, "S3_BUCKET_NAME")
	s3.Region = envFallback(s3.Region, "S3_REGION")

	minio := &c.Storage.MinIO
	minio.Endpoint = strings.TrimRight(envFallback(minio.Endpoint, "MINIO_ENDPOINT"), "/")
	if minio.Endpoint == "" {
		minio.Endpoint = defaultMinIOEndpoint
	}
	minio.AccessKey = envFallback(minio.AccessKey, "MINIO_ACCESS_KEY")
	minio.SecretKey = envFallback(minio.SecretKey, "MINIO_SECRET_KEY")
	minio.Bucket = envFallback(minio.Bucket, "MINIO_BUCKET_NAME")
	if minio.Bucket == "" {
		minio.Bucket = defaultMinIOBucket
	}
	minio.Region = envFallback(minio.Region, "MINIO_REGION")
	if value, ok := os.LookupEnv("MINIO_SECURE"); ok && strings.TrimSpace(value) != "" {
		secure, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MINIO_SECURE: %w", err)
		}
		minio.Secure = secure
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Engine = strings.ToLower(strings.TrimSpace(t.Engine))
	if t.Engine == "" {
		t.Engine = defaultEngine
	}
	t.Model = strings.TrimSpace(t.Model)
	if t.Model == "" {
		t.Model = defaultModel
	}
	t.Device = strings.ToLower(strings.TrimSpace(t.Device))
	if t.Device == "" {
		t.Device = defaultDevice
	}
	t.ComputeType = strings.ToLower(strings.TrimSpace(t.ComputeType))
	if t.ComputeType == "" {
		t.ComputeType = defaultComputeType
	}
	t.VADMethod = strings.ToLower(strings.TrimSpace(t.VADMethod))
	if t.VADMethod == "" {
		t.VADMethod = defaultVADMethod
	}
	t.UVXBinary = strings.TrimSpace(t.UVXBinary)
	if t.UVXBinary == "" {
		t.UVXBinary = defaultUVXBinary
	}
	t.HFToken = envFallback(t.HFToken, "HF_TOKEN")
	t.OpenAIAPIKey = envFallback(t.OpenAIAPIKey, "OPENAI_API_KEY")
	t.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(t.OpenAIBaseURL), "/")
	if t.OpenAIBaseURL == "" {
		t.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	t.OpenAIModel = strings.TrimSpace(t.OpenAIModel)
	if t.OpenAIModel == "" {
		t.OpenAIModel = defaultOpenAIModel
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// envFallback returns the trimmed configured value, or the named environment
// variable when the configured value is empty.
func envFallback(current, key string) string {
	current = strings.TrimSpace(current)
	if current != "" {
		return current
	}
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
