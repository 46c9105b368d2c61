package storage

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const publicReadACL = "public-read"

// s3Putter serves both the S3-compatible and path-style providers; they only
// differ in how the endpoint and TLS flag are derived.
type s3Putter struct {
	client *minio.Client
}

func newS3Putter(d S3Descriptor) (ObjectPutter, error) {
	host, secure := Descriptor{Kind: KindS3, S3: &d}.s3Host()
	return newMinIOClient(host, d.AccessKey, d.SecretKey, d.Region, secure)
}

func newMinIOPutter(d MinIODescriptor) (ObjectPutter, error) {
	host, _, err := splitEndpoint(d.Endpoint)
	if err != nil {
		return nil, err
	}
	return newMinIOClient(host, d.AccessKey, d.SecretKey, d.Region, d.Secure)
}

func newMinIOClient(host, accessKey, secretKey, region string, secure bool) (ObjectPutter, error) {
	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, err
	}
	return &s3Putter{client: client}, nil
}

func (p *s3Putter) PutFile(ctx context.Context, bucket, object, localPath, contentType string) error {
	_, err := p.client.FPutObject(ctx, bucket, object, localPath, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": publicReadACL},
	})
	return err
}

func (p *s3Putter) Close() error { return nil }
