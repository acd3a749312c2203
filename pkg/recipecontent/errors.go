package recipecontent

import (
	"errors"
	"fmt"
)

// Error kinds. Every precondition error returned by the service unwraps to
// exactly one of these.
var (
	// ErrMissingArgument indicates a required argument was nil or empty
	ErrMissingArgument = errors.New("missing argument")

	// ErrUnauthenticated indicates no user is signed in
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidFileType indicates the declared MIME type is not allowed
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrFileTooLarge indicates the file exceeds MaxImageSize
	ErrFileTooLarge = errors.New("file too large")
)

// Precondition errors. The messages are shown to end users as-is and existing
// clients match on them, so they must not change.
var (
	ErrFileAndRecipeUUIDRequired = newError(ErrMissingArgument, "File and recipe UUID are required")
	ErrRecipeUUIDRequired        = newError(ErrMissingArgument, "Recipe UUID is required")

	ErrUploadUnauthenticated = newError(ErrUnauthenticated, "User must be authenticated to upload images")
	ErrAccessUnauthenticated = newError(ErrUnauthenticated, "User must be authenticated to access images")
	ErrDeleteUnauthenticated = newError(ErrUnauthenticated, "User must be authenticated to delete images")

	ErrImageTypeNotAllowed = newError(ErrInvalidFileType, "Only JPEG, PNG, and WebP images are allowed")
	ErrImageTooLarge       = newError(ErrFileTooLarge, "File size must be less than 10MB")
)

// ErrObjectNotFound indicates nothing is stored under the requested key
var ErrObjectNotFound = errors.New("object not found")

// Error is a precondition failure with a fixed user-facing message
type Error struct {
	Kind    error
	Message string
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotFound builds the error a backend returns when key holds no object
func NotFound(backend, op, key string) error {
	return &StorageError{Backend: backend, Key: key, Op: op, Err: ErrObjectNotFound}
}
