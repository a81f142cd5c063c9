package adapter

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

var ErrObjectNotFound = goerr.New("object not found")

// Storage keeps full-size original images next to the compressed records
type Storage interface {
	// Put returns a writer that uploads an object on Close
	Put(ctx context.Context, key, contentType string) (io.WriteCloser, error)
	// Get opens an object for reading
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

type archive struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

type StorageOption func(*archive)

// WithKeyPrefix stores every object below prefix, for buckets shared between
// deployments
func WithKeyPrefix(prefix string) StorageOption {
	return func(a *archive) {
		a.prefix = prefix
	}
}

// NewStorage creates a Cloud Storage backed archive using application default
// credentials
func NewStorage(ctx context.Context, bucketName string, opts ...StorageOption) (Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	a := &archive{
		bucket: client.Bucket(bucketName),
		name:   bucketName,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *archive) object(key string) string {
	// Plain concatenation: the key is stored as given, never resolved
	prefix := strings.TrimSuffix(a.prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func (a *archive) Put(ctx context.Context, key, contentType string) (io.WriteCloser, error) {
	w := a.bucket.Object(a.object(key)).NewWriter(ctx)
	w.ContentType = contentType
	// Originals are immutable once written
	w.CacheControl = "private, max-age=31536000, immutable"
	return w, nil
}

func (a *archive) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	name := a.object(key)
	r, err := a.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, goerr.Wrap(ErrObjectNotFound, "archived image does not exist", goerr.V("object", name), goerr.V("bucket", a.name))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("object", name), goerr.V("bucket", a.name))
	}
	return r, nil
}
