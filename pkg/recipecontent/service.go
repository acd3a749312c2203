package recipecontent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/recipe-content/pkg/recipecontent/objectkey"
)

// Service is the main interface for recipe image storage
type Service interface {
	// StoreRecipeImage uploads file as the image of the given recipe
	StoreRecipeImage(ctx context.Context, file *File, recipeUUID string) (*ObjectMeta, error)

	// GetReferenceToUploadedFile returns a download URL for the recipe's image
	GetReferenceToUploadedFile(ctx context.Context, recipeUUID string) (string, error)

	// RemoveImage deletes the recipe's image
	RemoveImage(ctx context.Context, recipeUUID string) error

	// ValidateFileType reports whether the file's declared MIME type is allowed
	ValidateFileType(file *File) bool

	// ValidateFileSize reports whether the file is at most MaxImageSize bytes
	ValidateFileSize(file *File) bool

	// ResizeImage is reserved for image processing and returns file unchanged
	ResizeImage(file *File, maxWidth, maxHeight int) *File

	// CreateThumbnail is reserved for image processing and returns file unchanged
	CreateThumbnail(file *File, size int) *File
}

// service implements the Service interface
type service struct {
	auth      AuthorizationProvider
	blobStore BlobStore
	keys      objectkey.Generator
	eventSink EventSink
	logger    *slog.Logger
	now       func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithAuthorization sets the authorization collaborator
func WithAuthorization(auth AuthorizationProvider) Option {
	return func(s *service) {
		s.auth = auth
	}
}

// WithBlobStore sets the blob storage collaborator
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithKeyGenerator replaces the default "recipeImage_<uuid>" key strategy
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		keys:      objectkey.NewRecipeImageGenerator(),
		eventSink: NewNoopEventSink(),
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.auth == nil {
		return nil, fmt.Errorf("authorization provider is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.keys == nil {
		s.keys = objectkey.NewRecipeImageGenerator()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) StoreRecipeImage(ctx context.Context, file *File, recipeUUID string) (*ObjectMeta, error) {
	if file == nil || recipeUUID == "" {
		return nil, ErrFileAndRecipeUUIDRequired
	}
	if !s.auth.IsAuthenticated(ctx) {
		s.logger.DebugContext(ctx, "Rejected anonymous image upload", "recipe_uuid", recipeUUID)
		return nil, ErrUploadUnauthenticated
	}
	if !s.ValidateFileType(file) {
		s.logger.DebugContext(ctx, "Rejected image type", "recipe_uuid", recipeUUID, "mime_type", file.Type)
		return nil, ErrImageTypeNotAllowed
	}
	if !s.ValidateFileSize(file) {
		s.logger.DebugContext(ctx, "Rejected image size", "recipe_uuid", recipeUUID, "size", file.Size)
		return nil, ErrImageTooLarge
	}

	key := s.keys.GenerateKey(recipeUUID)
	userUID := s.auth.UserUID(ctx)

	metadata := map[string]string{
		MetadataRecipeUUID: recipeUUID,
	}
	if userUID != "" {
		metadata[MetadataUploadedBy] = userUID
	}
	if file.Name != "" {
		metadata[MetadataFileName] = file.Name
	}

	meta, err := s.blobStore.Upload(ctx, file.Body, UploadParams{
		ObjectKey: key,
		MimeType:  file.Type,
		Size:      file.Size,
		Metadata:  metadata,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upload recipe image", "recipe_uuid", recipeUUID, "object_key", key, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Recipe image stored", "recipe_uuid", recipeUUID, "object_key", key, "size", file.Size)
	s.fire(ctx, s.eventSink.ImageStored, ImageEvent{
		RecipeUUID:  recipeUUID,
		ObjectKey:   key,
		UserUID:     userUID,
		ContentType: file.Type,
		Size:        file.Size,
	})

	return meta, nil
}

func (s *service) GetReferenceToUploadedFile(ctx context.Context, recipeUUID string) (string, error) {
	if recipeUUID == "" {
		return "", ErrRecipeUUIDRequired
	}
	if !s.auth.IsAuthenticated(ctx) {
		s.logger.DebugContext(ctx, "Rejected anonymous image access", "recipe_uuid", recipeUUID)
		return "", ErrAccessUnauthenticated
	}

	key := s.keys.GenerateKey(recipeUUID)
	url, err := s.blobStore.GetDownloadURL(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get recipe image URL", "recipe_uuid", recipeUUID, "object_key", key, "error", err)
		return "", err
	}

	s.fire(ctx, s.eventSink.ImageAccessed, ImageEvent{
		RecipeUUID: recipeUUID,
		ObjectKey:  key,
		UserUID:    s.auth.UserUID(ctx),
	})

	return url, nil
}

func (s *service) RemoveImage(ctx context.Context, recipeUUID string) error {
	if recipeUUID == "" {
		return ErrRecipeUUIDRequired
	}
	if !s.auth.IsAuthenticated(ctx) {
		s.logger.DebugContext(ctx, "Rejected anonymous image delete", "recipe_uuid", recipeUUID)
		return ErrDeleteUnauthenticated
	}

	key := s.keys.GenerateKey(recipeUUID)
	if err := s.blobStore.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete recipe image", "recipe_uuid", recipeUUID, "object_key", key, "error", err)
		return err
	}

	s.logger.InfoContext(ctx, "Recipe image removed", "recipe_uuid", recipeUUID, "object_key", key)
	s.fire(ctx, s.eventSink.ImageRemoved, ImageEvent{
		RecipeUUID: recipeUUID,
		ObjectKey:  key,
		UserUID:    s.auth.UserUID(ctx),
	})

	return nil
}

// ValidateFileType only looks at the declared MIME type. A file named
// "malicious.php.jpg" declaring image/jpeg passes.
func (s *service) ValidateFileType(file *File) bool {
	if file == nil {
		return false
	}
	return IsAllowedImageType(file.Type)
}

func (s *service) ValidateFileSize(file *File) bool {
	if file == nil {
		return false
	}
	return file.Size <= MaxImageSize
}

func (s *service) ResizeImage(file *File, maxWidth, maxHeight int) *File {
	return file
}

func (s *service) CreateThumbnail(file *File, size int) *File {
	return file
}

// fire delivers an event; sink failures are logged and never fail the operation
func (s *service) fire(ctx context.Context, deliver func(context.Context, ImageEvent) error, event ImageEvent) {
	event.OccurredAt = s.now().UTC()
	if err := deliver(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to deliver image event", "recipe_uuid", event.RecipeUUID, "error", err)
	}
}
