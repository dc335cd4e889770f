// internal/adapters/out/gcs/itemImage_signer_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	usecase "campusmarket/internal/application/usecase"
)

const DefaultSignedURLTTL = 15 * time.Minute

var (
	ErrEmptyRef      = errors.New("gcs: image ref is empty")
	ErrBucketMissing = errors.New("gcs: bucket not configured")
)

// urlSigner is the slice of *storage.BucketHandle used here.
type urlSigner interface {
	SignedURL(object string, opts *storage.SignedURLOptions) (string, error)
}

// ItemImageSigner resolves stored image refs into short-lived GET URLs.
//
// Accepted refs:
//   - "gs://<bucket>/<object>"
//   - "<object>" (resolved against the default bucket)
//   - "http(s)://..." (returned unchanged)
type ItemImageSigner struct {
	bucketFor     func(name string) urlSigner
	defaultBucket string
	ttl           time.Duration
	now           func() time.Time
}

var _ usecase.ImageURLResolver = (*ItemImageSigner)(nil)

func NewItemImageSigner(client *storage.Client, defaultBucket string, ttl time.Duration) *ItemImageSigner {
	return newItemImageSigner(func(name string) urlSigner { return client.Bucket(name) }, defaultBucket, ttl)
}

func newItemImageSigner(bucketFor func(string) urlSigner, defaultBucket string, ttl time.Duration) *ItemImageSigner {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &ItemImageSigner{
		bucketFor:     bucketFor,
		defaultBucket: strings.TrimSpace(defaultBucket),
		ttl:           ttl,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *ItemImageSigner) ResolveURL(_ context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyRef
	}
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref, nil
	}

	bucket, object, err := s.split(ref)
	if err != nil {
		return "", err
	}

	u, err := s.bucketFor(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: s.now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("gcs: sign %s/%s: %w", bucket, object, err)
	}
	return u, nil
}

func (s *ItemImageSigner) split(ref string) (bucket, object string, err error) {
	if rest, ok := strings.CutPrefix(ref, "gs://"); ok {
		bucket, object, _ = strings.Cut(rest, "/")
	} else {
		bucket, object = s.defaultBucket, ref
	}
	bucket = strings.TrimSpace(bucket)
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if bucket == "" {
		return "", "", ErrBucketMissing
	}
	if object == "" {
		return "", "", ErrEmptyRef
	}
	return bucket, object, nil
}
