package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioFetcher streams objects from S3-compatible storage into temp files.
type MinioFetcher struct {
	client *minio.Client
	logger *zap.Logger
}

// NewMinioFetcher creates a fetcher backed by an S3-compatible endpoint.
func NewMinioFetcher(endpoint, accessKey, secretKey string, useSSL bool, logger *zap.Logger) (*MinioFetcher, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioFetcher{client: client, logger: logger}, nil
}

// Fetch downloads bucket/key into a temporary file. On any failure the
// partial file is removed before returning.
func (f *MinioFetcher) Fetch(ctx context.Context, bucket, key string) (*LocalImage, error) {
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &DownloadError{Bucket: bucket, Key: key, Err: err}
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "capture-*"+filepath.Ext(key))
	if err != nil {
		return nil, &DownloadError{Bucket: bucket, Key: key, Err: err}
	}

	if _, err := io.Copy(tmp, obj); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, &DownloadError{Bucket: bucket, Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, &DownloadError{Bucket: bucket, Key: key, Err: err}
	}

	f.logger.Debug("image downloaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("path", tmp.Name()))
	return &LocalImage{Path: tmp.Name()}, nil
}
