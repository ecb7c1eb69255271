package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const (
	uploadMaxRetries = 4
	uploadTimeout    = 50 * time.Second
)

// GCSStore keeps files as objects of one bucket. Paths become object names
// below an optional prefix.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
	// initialBackoff is the first wait between upload attempts.
	initialBackoff time.Duration
}

// NewGCSStore creates a store over bucket using a new storage client.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must be provided to create a GCS store")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &GCSStore{
		client:         client,
		bucket:         bucket,
		prefix:         strings.Trim(prefix, "/"),
		initialBackoff: time.Second,
	}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectName(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

func (s *GCSStore) object(p string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectName(p))
}

// Exists reports whether the object for p is present.
func (s *GCSStore) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.object(p).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get attributes of gs://%s/%s: %w", s.bucket, s.objectName(p), err)
	}
	return true, nil
}

// ReadFile downloads the object for p.
func (s *GCSStore) ReadFile(ctx context.Context, p string) ([]byte, error) {
	reader, err := s.object(p).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", s.bucket, s.objectName(p), err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, s.objectName(p), err)
	}
	return data, nil
}

// WriteFile uploads data to p, retrying with exponential backoff.
func (s *GCSStore) WriteFile(ctx context.Context, p string, data []byte) error {
	name := s.objectName(p)
	backoff := s.initialBackoff
	var lastErr error

	for i := 0; i < uploadMaxRetries; i++ {
		err := func() error {
			writeCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
			defer cancel()

			writer := s.client.Bucket(s.bucket).Object(name).NewWriter(writeCtx)
			writer.ContentType = contentType(name)
			if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
				_ = writer.Close()
				return fmt.Errorf("io.Copy to GCS failed: %w", err)
			}
			if err := writer.Close(); err != nil {
				return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
			}
			return nil
		}()
		if err == nil {
			return nil
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", name,
			"attempt", i+1,
			"maxRetries", uploadMaxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", name, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", name, lastErr)
}

// RemoveAll deletes the object for p and every object below p/.
func (s *GCSStore) RemoveAll(ctx context.Context, p string) error {
	name := s.objectName(p)
	if name == "" || name == s.prefix {
		return fmt.Errorf("refusing to remove the store root")
	}
	bucket := s.client.Bucket(s.bucket)

	if err := deleteObject(ctx, bucket.Object(name)); err != nil {
		return err
	}
	it := bucket.Objects(ctx, &storage.Query{Prefix: name + "/"})
	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list gs://%s/%s/: %w", s.bucket, name, err)
		}
		if err := deleteObject(ctx, bucket.Object(attrs.Name)); err != nil {
			return err
		}
		removed++
	}
	slog.Info("Removed GCS objects.", "gcsBucket", s.bucket, "prefix", name, "count", removed)
	return nil
}

// deleteObject treats an already absent object as deleted.
func deleteObject(ctx context.Context, obj *storage.ObjectHandle) error {
	err := obj.Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("failed to delete %s: %w", obj.ObjectName(), err)
}

func contentType(name string) string {
	if strings.EqualFold(path.Ext(name), ".pdf") {
		return "application/pdf"
	}
	return "application/octet-stream"
}
