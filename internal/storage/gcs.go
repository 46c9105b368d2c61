package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsPutter struct {
	client *gcs.Client
}

// newGCSPutter accepts the service-account key either inline as JSON or as a
// path to the key file.
func newGCSPutter(ctx context.Context, d GCPDescriptor) (ObjectPutter, error) {
	var credential option.ClientOption
	if strings.HasPrefix(strings.TrimSpace(d.Credentials), "{") {
		credential = option.WithCredentialsJSON([]byte(d.Credentials))
	} else {
		if _, err := os.Stat(d.Credentials); err != nil {
			return nil, fmt.Errorf("gcp credentials file: %w", err)
		}
		credential = option.WithCredentialsFile(d.Credentials)
	}
	client, err := gcs.NewClient(ctx, credential)
	if err != nil {
		return nil, err
	}
	return &gcsPutter{client: client}, nil
}

func (p *gcsPutter) PutFile(ctx context.Context, bucket, object, localPath, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := p.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.PredefinedACL = "publicRead"
	if _, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (p *gcsPutter) Close() error { return p.client.Close() }
