package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/nikolayk812/shopflow/internal/port"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// imageCacheControl applies to product images; keys are never reused, so objects are immutable.
const imageCacheControl = "public, max-age=31536000, immutable"

type imageStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

// NewImageStore stores product images in a Cloud Storage bucket. Returned URLs are built from
// publicBaseURL, or the public storage.googleapis.com host when it is empty.
func NewImageStore(client *gcs.Client, bucket, publicBaseURL string) (port.ImageStore, error) {
	if client == nil {
		return nil, errors.New("image store: client is required")
	}

	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("image store: bucket is required")
	}

	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL + "/" + bucket
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}

	return &imageStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: base,
	}, nil
}

func (s *imageStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("image store: key is required")
	}
	if body == nil {
		return "", errors.New("image store: body is required")
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = imageCacheControl

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("w.Close: %w", err)
	}

	return s.publicURL(key), nil
}

// Delete removes the object at key. A missing object is not an error.
func (s *imageStore) Delete(ctx context.Context, key string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return nil
	}

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("object.Delete: %w", err)
	}

	return nil
}

func (s *imageStore) publicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + strings.Join(segments, "/")
}
