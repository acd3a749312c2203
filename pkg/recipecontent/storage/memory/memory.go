package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/tendant/recipe-content/pkg/recipecontent"
)

const backendName = "memory"

// DefaultURLPrefix is used for download URLs when no prefix is configured
const DefaultURLPrefix = "memory://"

type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
	etag        string
	updatedAt   time.Time
}

// Backend is an in-memory implementation of the recipecontent.BlobStore interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	urlPrefix string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return NewWithURLPrefix(DefaultURLPrefix)
}

// NewWithURLPrefix creates an in-memory backend whose download URLs are
// urlPrefix followed by the object key
func NewWithURLPrefix(urlPrefix string) *Backend {
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	return &Backend{
		objects:   make(map[string]object),
		urlPrefix: urlPrefix,
	}
}

// Upload stores the content, replacing any previous object under the key
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params recipecontent.UploadParams) (*recipecontent.ObjectMeta, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	contentType := params.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	sum := md5.Sum(data)

	obj := object{
		data:        data,
		contentType: contentType,
		metadata:    maps.Clone(params.Metadata),
		etag:        hex.EncodeToString(sum[:]),
		updatedAt:   time.Now().UTC(),
	}

	b.mu.Lock()
	b.objects[params.ObjectKey] = obj
	b.mu.Unlock()

	return obj.meta(params.ObjectKey), nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*recipecontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, recipecontent.NotFound(backendName, "meta", objectKey)
	}
	return obj.meta(objectKey), nil
}

// GetDownloadURL returns the configured prefix followed by the key
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[objectKey]; !exists {
		return "", recipecontent.NotFound(backendName, "url", objectKey)
	}
	return b.urlPrefix + objectKey, nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, recipecontent.NotFound(backendName, "download", objectKey)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return recipecontent.NotFound(backendName, "delete", objectKey)
	}

	delete(b.objects, objectKey)
	return nil
}

func (o object) meta(key string) *recipecontent.ObjectMeta {
	return &recipecontent.ObjectMeta{
		Key:         key,
		Size:        int64(len(o.data)),
		ContentType: o.contentType,
		UpdatedAt:   o.updatedAt,
		ETag:        o.etag,
		Metadata:    maps.Clone(o.metadata),
	}
}
