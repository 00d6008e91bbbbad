package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type memStore map[string][]byte

func (m memStore) Read(_ context.Context, path string) ([]byte, error) {
	b, ok := m[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return b, nil
}

func TestLocalStore_ReadRelativeAndMissing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "w2.pdf"), []byte("%PDF"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewLocalStore(root)

	b, err := s.Read(context.Background(), "w2.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "%PDF" {
		t.Fatalf("unexpected bytes %q", b)
	}

	_, err = s.Read(context.Background(), "missing.pdf")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestLocalStore_RejectsEscape(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	if _, err := s.Read(context.Background(), "../../etc/passwd"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected escape to be rejected, got %v", err)
	}
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	r := NewRouter(
		memStore{"local.pdf": []byte("L")},
		memStore{"gs://b/o.pdf": []byte("G")},
		nil,
		nil,
	)
	if b, err := r.Read(context.Background(), "gs://b/o.pdf"); err != nil || string(b) != "G" {
		t.Fatalf("gcs read: %q %v", b, err)
	}
	if b, err := r.Read(context.Background(), "local.pdf"); err != nil || string(b) != "L" {
		t.Fatalf("local read: %q %v", b, err)
	}
	if _, err := r.Read(context.Background(), "s3://b/k"); err == nil {
		t.Fatalf("expected error without s3 backend")
	}
}

func TestSplitBucketURI(t *testing.T) {
	b, k, err := splitBucketURI("s3://docs/2024/w2.pdf", "s3")
	if err != nil || b != "docs" || k != "2024/w2.pdf" {
		t.Fatalf("got %q %q %v", b, k, err)
	}
	if _, _, err := splitBucketURI("gs://only-bucket", "gs"); err == nil {
		t.Fatalf("expected error for missing object")
	}
}
