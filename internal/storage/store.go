package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrFileNotFound is returned when a stored document path does not resolve to bytes.
var ErrFileNotFound = errors.New("file not found")

// FileStore reads raw document bytes for a stored path.
type FileStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// Router dispatches a stored path to a backend by its URI scheme.
// "gs://bucket/object" and "s3://bucket/key" go to the cloud stores; anything
// else is a local path.
type Router struct {
	Local  FileStore
	GCS    FileStore
	S3     FileStore
	logger *slog.Logger
}

func NewRouter(local, gcs, s3 FileStore, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{Local: local, GCS: gcs, S3: s3, logger: logger}
}

func (r *Router) Read(ctx context.Context, path string) ([]byte, error) {
	var store FileStore
	switch {
	case strings.HasPrefix(path, "gs://"):
		store = r.GCS
	case strings.HasPrefix(path, "s3://"):
		store = r.S3
	default:
		store = r.Local
	}
	if store == nil {
		r.logger.Warn("storage.backend_unavailable", "path", path)
		return nil, fmt.Errorf("no storage backend configured for %q", path)
	}
	b, err := store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("storage.read.ok", "path", path, "bytes", len(b))
	return b, nil
}

// splitBucketURI splits "scheme://bucket/key/parts" into bucket and key.
func splitBucketURI(uri, scheme string) (string, string, error) {
	rest := strings.TrimPrefix(uri, scheme+"://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid %s uri %q", scheme, uri)
	}
	return bucket, key, nil
}
