package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStore keeps documents as objects in a Google Cloud Storage bucket.
// The revision of a document is its object generation; writes are made
// conditional on that generation.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store over bucket. credentialsFile may be empty to
// use application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*GCSStore, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Read(ctx context.Context, path string) (Blob, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return Blob{}, fmt.Errorf("read gs://%s/%s: %w", s.bucket, path, ErrNotFound)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("read gs://%s/%s: %w", s.bucket, path, err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return Blob{}, fmt.Errorf("read gs://%s/%s: %w", s.bucket, path, err)
	}
	return Blob{Content: content, Revision: strconv.FormatInt(r.Attrs.Generation, 10)}, nil
}

func (s *GCSStore) Write(ctx context.Context, path string, content []byte, expectedRevision string) (string, error) {
	cond := storage.Conditions{DoesNotExist: true}
	if expectedRevision != "" {
		gen, err := strconv.ParseInt(expectedRevision, 10, 64)
		if err != nil {
			return "", fmt.Errorf("write gs://%s/%s: invalid revision %q: %w", s.bucket, path, expectedRevision, err)
		}
		cond = storage.Conditions{GenerationMatch: gen}
	}

	obj := s.client.Bucket(s.bucket).Object(path)
	w := obj.If(cond).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	w.Metadata = map[string]string{"message": CommitMessage(ctx, "update "+path)}

	if _, err := w.Write(content); err != nil {
		w.Close()
		return "", s.writeError(ctx, path, expectedRevision, err)
	}
	if err := w.Close(); err != nil {
		return "", s.writeError(ctx, path, expectedRevision, err)
	}
	return strconv.FormatInt(w.Attrs().Generation, 10), nil
}

func (s *GCSStore) writeError(ctx context.Context, path, expectedRevision string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		conflict := &ConflictError{Path: path, ExpectedRevision: expectedRevision}
		if attrs, aerr := s.client.Bucket(s.bucket).Object(path).Attrs(ctx); aerr == nil {
			conflict.CurrentRevision = strconv.FormatInt(attrs.Generation, 10)
		}
		return conflict
	}
	return fmt.Errorf("write gs://%s/%s: %w", s.bucket, path, err)
}
