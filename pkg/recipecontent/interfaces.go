package recipecontent

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// Upload stores the reader's content under params.ObjectKey and returns
	// the metadata of the stored object
	Upload(ctx context.Context, reader io.Reader, params UploadParams) (*ObjectMeta, error)

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string) (string, error)

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// AuthorizationProvider reports the sign-in state of the current caller.
// Implementations must answer from state that is already resolved; the
// service never waits for authentication to complete.
type AuthorizationProvider interface {
	// IsAuthenticated reports whether a user is signed in
	IsAuthenticated(ctx context.Context) bool

	// UserUID returns the identifier of the signed-in user, or "" when anonymous
	UserUID(ctx context.Context) string
}

// EventSink defines the interface for event handling
type EventSink interface {
	// ImageStored is fired after an image was uploaded
	ImageStored(ctx context.Context, event ImageEvent) error

	// ImageAccessed is fired after a download URL was handed out
	ImageAccessed(ctx context.Context, event ImageEvent) error

	// ImageRemoved is fired after an image was deleted
	ImageRemoved(ctx context.Context, event ImageEvent) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string            `json:"key"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ETag        string            `json:"etag,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
	// Size is the exact byte count of the reader, or -1 when unknown
	Size     int64
	Metadata map[string]string
}

// ImageEvent describes a completed image operation
type ImageEvent struct {
	RecipeUUID  string
	ObjectKey   string
	UserUID     string
	ContentType string
	Size        int64
	OccurredAt  time.Time
}

// Metadata keys attached to uploaded objects
const (
	MetadataUploadedBy = "uploaded-by"
	MetadataFileName   = "file-name"
	MetadataRecipeUUID = "recipe-uuid"
)
