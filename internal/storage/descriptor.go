package storage

import (
	"fmt"
	"net/url"
	"strings"

	"transcriber/internal/config"
	"transcriber/internal/services"
)

// Kind names a storage provider.
type Kind string

const (
	KindGCP   Kind = "gcp"
	KindS3    Kind = "s3"
	KindMinIO Kind = "minio"
)

// GCPDescriptor holds Google Cloud Storage settings.
type GCPDescriptor struct {
	Bucket      string
	Credentials string
}

// S3Descriptor holds settings for S3-compatible endpoints. An empty endpoint
// means AWS.
type S3Descriptor struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// MinIODescriptor holds settings for path-style object stores.
type MinIODescriptor struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	Region    string
}

// Descriptor is the resolved provider: Kind plus exactly one non-nil payload.
// It is built once and never mutated.
type Descriptor struct {
	Kind  Kind
	GCP   *GCPDescriptor
	S3    *S3Descriptor
	MinIO *MinIODescriptor
}

// Resolve selects the provider. An explicit provider wins; otherwise MinIO
// credentials win, then S3 credentials, then MinIO with its defaults. The
// chosen provider's required fields must be present.
func Resolve(cfg config.Storage) (Descriptor, error) {
	kind, err := selectKind(cfg)
	if err != nil {
		return Descriptor{}, err
	}
	var desc Descriptor
	switch kind {
	case KindGCP:
		desc = Descriptor{Kind: KindGCP, GCP: &GCPDescriptor{
			Bucket:      strings.TrimSpace(cfg.GCP.Bucket),
			Credentials: strings.TrimSpace(cfg.GCP.Credentials),
		}}
	case KindS3:
		desc = Descriptor{Kind: KindS3, S3: &S3Descriptor{
			Endpoint:  strings.TrimRight(strings.TrimSpace(cfg.S3.Endpoint), "/"),
			AccessKey: strings.TrimSpace(cfg.S3.AccessKey),
			SecretKey: strings.TrimSpace(cfg.S3.SecretKey),
			Bucket:    strings.TrimSpace(cfg.S3.Bucket),
			Region:    strings.TrimSpace(cfg.S3.Region),
		}}
	default:
		desc = Descriptor{Kind: KindMinIO, MinIO: &MinIODescriptor{
			Endpoint:  strings.TrimRight(strings.TrimSpace(cfg.MinIO.Endpoint), "/"),
			AccessKey: strings.TrimSpace(cfg.MinIO.AccessKey),
			SecretKey: strings.TrimSpace(cfg.MinIO.SecretKey),
			Bucket:    strings.TrimSpace(cfg.MinIO.Bucket),
			Secure:    cfg.MinIO.Secure,
			Region:    strings.TrimSpace(cfg.MinIO.Region),
		}}
	}
	if err := desc.Validate(); err != nil {
		return Descriptor{}, err
	}
	return desc, nil
}

func selectKind(cfg config.Storage) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case string(KindGCP):
		return KindGCP, nil
	case string(KindS3):
		return KindS3, nil
	case string(KindMinIO):
		return KindMinIO, nil
	case "":
	default:
		return "", configError(fmt.Sprintf("unsupported storage provider %q", cfg.Provider))
	}
	if hasAny(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey) {
		return KindMinIO, nil
	}
	if hasAny(cfg.S3.AccessKey, cfg.S3.SecretKey) {
		return KindS3, nil
	}
	return KindMinIO, nil
}

// Validate checks that the selected provider has every required field.
func (d Descriptor) Validate() error {
	var missing []string
	require := func(value, field, env string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", field, env))
		}
	}
	switch d.Kind {
	case KindGCP:
		if d.GCP == nil {
			return configError("gcp settings missing")
		}
		require(d.GCP.Bucket, "storage.gcp.bucket", "GCP_BUCKET_NAME")
		require(d.GCP.Credentials, "storage.gcp.credentials", "GCP_SA_CREDENTIALS")
	case KindS3:
		if d.S3 == nil {
			return configError("s3 settings missing")
		}
		require(d.S3.AccessKey, "storage.s3.access_key", "S3_ACCESS_KEY")
		require(d.S3.SecretKey, "storage.s3.secret_key", "S3_SECRET_KEY")
		require(d.S3.Bucket, "storage.s3.bucket", "S3_BUCKET_NAME")
		if d.S3.Endpoint != "" {
			if _, _, err := splitEndpoint(d.S3.Endpoint); err != nil {
				return configError(fmt.Sprintf("storage.s3.endpoint: %v", err))
			}
		}
	case KindMinIO:
		if d.MinIO == nil {
			return configError("minio settings missing")
		}
		require(d.MinIO.Endpoint, "storage.minio.endpoint", "MINIO_ENDPOINT")
		require(d.MinIO.AccessKey, "storage.minio.access_key", "MINIO_ACCESS_KEY")
		require(d.MinIO.SecretKey, "storage.minio.secret_key", "MINIO_SECRET_KEY")
		require(d.MinIO.Bucket, "storage.minio.bucket", "MINIO_BUCKET_NAME")
		if d.MinIO.Endpoint != "" {
			if _, _, err := splitEndpoint(d.MinIO.Endpoint); err != nil {
				return configError(fmt.Sprintf("storage.minio.endpoint: %v", err))
			}
		}
	default:
		return configError(fmt.Sprintf("unsupported storage provider %q", d.Kind))
	}
	if len(missing) > 0 {
		return configError(fmt.Sprintf("%s provider missing %s", d.Kind, strings.Join(missing, ", ")))
	}
	return nil
}

// Bucket returns the target bucket.
func (d Descriptor) Bucket() string {
	switch d.Kind {
	case KindGCP:
		return d.GCP.Bucket
	case KindS3:
		return d.S3.Bucket
	case KindMinIO:
		return d.MinIO.Bucket
	default:
		return ""
	}
}

// Endpoint returns the scheme and host objects are served from.
func (d Descriptor) Endpoint() string {
	switch d.Kind {
	case KindGCP:
		return "https://storage.googleapis.com"
	case KindS3:
		host, secure := d.s3Host()
		return schemeFor(secure) + "://" + host
	case KindMinIO:
		host, _, _ := splitEndpoint(d.MinIO.Endpoint)
		return schemeFor(d.MinIO.Secure) + "://" + host
	default:
		return ""
	}
}

// ObjectURL returns the public URL of object.
func (d Descriptor) ObjectURL(object string) string {
	return d.Endpoint() + "/" + url.PathEscape(d.Bucket()) + "/" + escapeObject(object)
}

// String describes the provider without secrets.
func (d Descriptor) String() string {
	switch d.Kind {
	case KindGCP, KindS3, KindMinIO:
		return fmt.Sprintf("%s bucket=%s endpoint=%s", d.Kind, d.Bucket(), d.Endpoint())
	default:
		return "unconfigured"
	}
}

// s3Host returns the S3 host and whether it is served over TLS. A scheme in
// the configured endpoint decides TLS; a bare host is assumed to be HTTPS.
func (d Descriptor) s3Host() (string, bool) {
	if d.S3.Endpoint != "" {
		host, scheme, err := splitEndpoint(d.S3.Endpoint)
		if err == nil {
			return host, scheme != "http"
		}
	}
	if d.S3.Region != "" && d.S3.Region != "us-east-1" {
		return "s3." + d.S3.Region + ".amazonaws.com", true
	}
	return "s3.amazonaws.com", true
}

// splitEndpoint separates an optional http(s) scheme from host[:port].
// The scheme is "" when the value has none.
func splitEndpoint(endpoint string) (string, string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		if endpoint == "" || strings.ContainsAny(endpoint, "/?#") {
			return "", "", fmt.Errorf("invalid endpoint %q", endpoint)
		}
		return endpoint, "", nil
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	if parsed.Host == "" || (parsed.Path != "" && parsed.Path != "/") {
		return "", "", fmt.Errorf("endpoint %q must be scheme://host[:port]", endpoint)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return "", "", fmt.Errorf("endpoint %q has unsupported scheme", endpoint)
	}
	return parsed.Host, parsed.Scheme, nil
}

func schemeFor(secure bool) string {
	if secure {
		return "https"
	}
	return "http"
}

func escapeObject(object string) string {
	parts := strings.Split(object, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func hasAny(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func configError(message string) error {
	return services.Wrap(services.ErrConfiguration, "storage", "select provider", message, nil)
}
