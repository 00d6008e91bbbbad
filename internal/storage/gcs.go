package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSStore reads gs://bucket/object paths.
type GCSStore struct {
	client *gcs.Client
}

func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Read(ctx context.Context, path string) ([]byte, error) {
	bucket, object, err := splitBucketURI(path, "gs")
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
