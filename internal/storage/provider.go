package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transcriber/internal/config"
	"transcriber/internal/logging"
	"transcriber/internal/services"
)

// ObjectPutter writes a local file to a bucket with public-read access.
type ObjectPutter interface {
	PutFile(ctx context.Context, bucket, object, localPath, contentType string) error
	Close() error
}

// Provider uploads files through the resolved backend.
type Provider struct {
	desc   Descriptor
	putter ObjectPutter
	logger *slog.Logger
}

// Option customizes a Provider.
type Option func(*providerOptions)

type providerOptions struct {
	putter ObjectPutter
	logger *slog.Logger
}

// WithObjectPutter replaces the backend client, typically in tests.
func WithObjectPutter(putter ObjectPutter) Option {
	return func(o *providerOptions) { o.putter = putter }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *providerOptions) { o.logger = logger }
}

// Select resolves the provider from configuration and builds its client.
// Missing credentials fail here with services.ErrConfiguration.
func Select(ctx context.Context, cfg config.Storage, opts ...Option) (*Provider, error) {
	desc, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return New(ctx, desc, opts...)
}

// New builds a provider for an already resolved descriptor.
func New(ctx context.Context, desc Descriptor, opts ...Option) (*Provider, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}
	putter := o.putter
	if putter == nil {
		var err error
		switch desc.Kind {
		case KindGCP:
			putter, err = newGCSPutter(ctx, *desc.GCP)
		case KindS3:
			putter, err = newS3Putter(*desc.S3)
		case KindMinIO:
			putter, err = newMinIOPutter(*desc.MinIO)
		}
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "storage", "build client", string(desc.Kind), err)
		}
	}
	logger := logging.NewComponentLogger(o.logger, "storage")
	logger.Info("storage provider selected",
		logging.String("provider", string(desc.Kind)),
		logging.String("bucket", desc.Bucket()),
		logging.String("endpoint", desc.Endpoint()),
	)
	return &Provider{desc: desc, putter: putter, logger: logger}, nil
}

// Descriptor returns the resolved provider settings.
func (p *Provider) Descriptor() Descriptor { return p.desc }

// UploadFile uploads localPath under its base name and returns the public URL.
// Failures carry services.ErrDelivery.
func (p *Provider) UploadFile(ctx context.Context, localPath string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrDelivery, "delivering", "upload", "stat artifact", err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrDelivery, "delivering", "upload", fmt.Sprintf("%s is not a regular file", localPath), nil)
	}
	object := filepath.Base(localPath)
	contentType := ContentType(object)

	started := time.Now()
	if err := p.putter.PutFile(ctx, p.desc.Bucket(), object, localPath, contentType); err != nil {
		return "", services.Wrap(services.ErrDelivery, "delivering", "upload",
			fmt.Sprintf("%s to %s bucket %s", object, p.desc.Kind, p.desc.Bucket()), err)
	}
	objectURL := p.desc.ObjectURL(object)
	logging.WithContext(ctx, p.logger).Info("artifact uploaded",
		logging.String("object", object),
		logging.Int64("bytes", info.Size()),
		logging.String("url", objectURL),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return objectURL, nil
}

// Close releases the backend client.
func (p *Provider) Close() error {
	if p == nil || p.putter == nil {
		return nil
	}
	return p.putter.Close()
}

var contentTypes = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".srt":  "application/x-subrip",
	".json": "application/json",
}

// ContentType returns the upload content type for an artifact name.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
