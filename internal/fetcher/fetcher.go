package fetcher

import (
	"context"
	"fmt"
	"os"
)

// DownloadError reports that an image could not be retrieved from object
// storage. The caller should treat the image as unavailable rather than crash.
type DownloadError struct {
	Bucket string
	Key    string
	Err    error
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s/%s: %v", e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// LocalImage is a downloaded image held in a temporary file. Close removes
// the file and is safe to call more than once.
type LocalImage struct {
	Path string

	removed bool
}

// Close deletes the underlying temporary file.
func (img *LocalImage) Close() error {
	if img == nil || img.removed {
		return nil
	}
	img.removed = true
	return os.Remove(img.Path)
}

// Fetcher retrieves a remote image into a scoped local file.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (*LocalImage, error)
}
