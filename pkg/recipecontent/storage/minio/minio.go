package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tendant/recipe-content/pkg/recipecontent"
)

const backendName = "minio"

// Config options for the MinIO backend
type Config struct {
	Endpoint  string // host:port, without scheme
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool

	// PublicBaseURL, when set, is joined with the object key instead of
	// presigning. Use it when the bucket is served publicly or through a CDN.
	PublicBaseURL   string
	PresignDuration time.Duration // default: 1 hour

	CreateBucketIfNotExist bool
}

// Backend stores objects in a MinIO (or any S3-compatible) bucket
type Backend struct {
	client          *minio.Client
	bucket          string
	region          string
	publicBase      string
	presignDuration time.Duration
	createBucket    bool

	initOnce sync.Once
	initErr  error
}

// New creates a MinIO client. The bucket is checked lazily on first use.
func New(config Config) (*Backend, error) {
	endpoint := strings.TrimSpace(config.Endpoint)
	if endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	bucket := strings.TrimSpace(config.Bucket)
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	region := strings.TrimSpace(config.Region)
	if region == "" {
		region = "us-east-1"
	}
	presign := config.PresignDuration
	if presign <= 0 {
		presign = time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Backend{
		client:          client,
		bucket:          bucket,
		region:          region,
		publicBase:      strings.TrimRight(config.PublicBaseURL, "/"),
		presignDuration: presign,
		createBucket:    config.CreateBucketIfNotExist,
	}, nil
}

func (b *Backend) ensureBucket(ctx context.Context) error {
	if !b.createBucket {
		return nil
	}
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.bucket)
		if err != nil {
			b.initErr = fmt.Errorf("check bucket existence: %w", err)
			return
		}
		if exists {
			return
		}
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
			b.initErr = fmt.Errorf("create bucket %q: %w", b.bucket, err)
			return
		}
		slog.Info("Created storage bucket", "bucket", b.bucket)
	})
	return b.initErr
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

// Upload streams reader to the bucket. params.Size must be the exact byte
// count, or -1 to let the client buffer.
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params recipecontent.UploadParams) (*recipecontent.ObjectMeta, error) {
	if err := b.ensureBucket(ctx); err != nil {
		return nil, err
	}

	info, err := b.client.PutObject(ctx, b.bucket, params.ObjectKey, reader, params.Size, minio.PutObjectOptions{
		ContentType:  params.MimeType,
		UserMetadata: maps.Clone(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", params.ObjectKey, err)
	}

	updated := info.LastModified
	if updated.IsZero() {
		updated = time.Now()
	}
	return &recipecontent.ObjectMeta{
		Key:         params.ObjectKey,
		Size:        info.Size,
		ContentType: params.MimeType,
		UpdatedAt:   updated.UTC(),
		ETag:        info.ETag,
		Metadata:    maps.Clone(params.Metadata),
	}, nil
}

// GetObjectMeta stats the object
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*recipecontent.ObjectMeta, error) {
	info, err := b.client.StatObject(ctx, b.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, recipecontent.NotFound(backendName, "meta", objectKey)
		}
		return nil, fmt.Errorf("stat object %q: %w", objectKey, err)
	}

	meta := &recipecontent.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size,
		ContentType: info.ContentType,
		UpdatedAt:   info.LastModified.UTC(),
		ETag:        info.ETag,
		Metadata:    map[string]string{},
	}
	for k, v := range info.UserMetadata {
		meta.Metadata[strings.ToLower(k)] = v
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}
	return meta, nil
}

// GetDownloadURL returns the public URL when a base is configured, otherwise
// a presigned GET URL. The object must exist.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string) (string, error) {
	if _, err := b.GetObjectMeta(ctx, objectKey); err != nil {
		return "", err
	}

	if b.publicBase != "" {
		return b.publicURL(objectKey), nil
	}

	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	u, err := b.client.PresignedGetObject(ctx, b.bucket, objectKey, b.presignDuration, params)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", objectKey, err)
	}
	return u.String(), nil
}

func (b *Backend) publicURL(objectKey string) string {
	return b.publicBase + "/" + url.PathEscape(objectKey)
}

// Download opens the object for reading
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", objectKey, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNotFound(err) {
			return nil, recipecontent.NotFound(backendName, "download", objectKey)
		}
		return nil, fmt.Errorf("get object %q: %w", objectKey, err)
	}
	return obj, nil
}

// Delete removes the object. A missing key is reported as not found.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	if _, err := b.GetObjectMeta(ctx, objectKey); err != nil {
		return err
	}
	if err := b.client.RemoveObject(ctx, b.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", objectKey, err)
	}
	return nil
}
