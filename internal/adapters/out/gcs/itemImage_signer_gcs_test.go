package gcs

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	name string
	last *storage.SignedURLOptions
	err  error
}

func (b *fakeBucket) SignedURL(object string, opts *storage.SignedURLOptions) (string, error) {
	b.last = opts
	if b.err != nil {
		return "", b.err
	}
	return "https://signed.test/" + b.name + "/" + object, nil
}

func newTestSigner(buckets map[string]*fakeBucket, def string) *ItemImageSigner {
	s := newItemImageSigner(func(name string) urlSigner {
		b, ok := buckets[name]
		if !ok {
			b = &fakeBucket{name: name}
			buckets[name] = b
		}
		return b
	}, def, time.Minute)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestItemImageSigner_ResolveURL(t *testing.T) {
	buckets := map[string]*fakeBucket{}
	s := newTestSigner(buckets, "item-images")
	ctx := context.Background()

	u, err := s.ResolveURL(ctx, "items/i1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/item-images/items/i1/a.jpg", u)
	assert.Equal(t, "GET", buckets["item-images"].last.Method)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC), buckets["item-images"].last.Expires)

	u, err = s.ResolveURL(ctx, "gs://other/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/other/x.png", u)

	u, err = s.ResolveURL(ctx, "https://cdn.test/y.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/y.png", u)
}

func TestItemImageSigner_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestSigner(map[string]*fakeBucket{}, "").ResolveURL(ctx, "a.jpg")
	assert.ErrorIs(t, err, ErrBucketMissing)

	_, err = newTestSigner(map[string]*fakeBucket{}, "b").ResolveURL(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyRef)

	_, err = newTestSigner(map[string]*fakeBucket{}, "b").ResolveURL(ctx, "gs://b/")
	assert.ErrorIs(t, err, ErrEmptyRef)

	boom := errors.New("no signer")
	s := newTestSigner(map[string]*fakeBucket{"b": {name: "b", err: boom}}, "b")
	_, err = s.ResolveURL(ctx, "a.jpg")
	assert.ErrorIs(t, err, boom)
}
