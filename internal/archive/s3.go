package archive

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds settings for an S3-compatible recordings bucket
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string // Key prefix, e.g. "recordings"
	Insecure  bool   // Plain HTTP, for local MinIO
}

// Enabled reports whether an upload target is configured
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// S3Uploader stores recordings in an S3-compatible bucket
type S3Uploader struct {
	client *minio.Client
	config S3Config
}

// NewS3Uploader connects to the bucket and checks that it exists
func NewS3Uploader(ctx context.Context, config S3Config) (*S3Uploader, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("S3 endpoint and bucket are required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: !config.Insecure,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", config.Bucket)
	}

	return &S3Uploader{client: client, config: config}, nil
}

// Upload stores a local recording under key and returns its URL
func (u *S3Uploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat recording: %w", err)
	}

	objectKey := ObjectKey(u.config.Prefix, key)
	_, err = u.client.PutObject(ctx, u.config.Bucket, objectKey, file, info.Size(), minio.PutObjectOptions{
		ContentType:  "audio/mpeg",
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	return u.objectURL(objectKey), nil
}

func (u *S3Uploader) objectURL(objectKey string) string {
	scheme := "https"
	if u.config.Insecure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, u.config.Endpoint, u.config.Bucket, url.PathEscape(objectKey))
}

// ObjectKey joins a prefix and key with forward slashes
func ObjectKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
