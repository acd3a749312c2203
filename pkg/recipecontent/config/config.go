package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tendant/recipe-content/pkg/recipecontent"
	"github.com/tendant/recipe-content/pkg/recipecontent/audit"
	"github.com/tendant/recipe-content/pkg/recipecontent/auth"
	"github.com/tendant/recipe-content/pkg/recipecontent/objectkey"
	fsstorage "github.com/tendant/recipe-content/pkg/recipecontent/storage/fs"
	memorystorage "github.com/tendant/recipe-content/pkg/recipecontent/storage/memory"
	miniostorage "github.com/tendant/recipe-content/pkg/recipecontent/storage/minio"
	s3storage "github.com/tendant/recipe-content/pkg/recipecontent/storage/s3"
)

// Authentication modes
const (
	AuthModeNone     = "none"
	AuthModeHMAC     = "hmac"
	AuthModeFirebase = "firebase"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                  "8080",
		Environment:           "development",
		DefaultStorageBackend: "memory",
		StorageBackends: []StorageBackendConfig{
			{
				Name:   "memory",
				Type:   "memory",
				Config: map[string]interface{}{},
			},
		},
		AuthMode:           AuthModeNone,
		AuditDBSchema:      audit.DefaultSchema,
		EnableEventLogging: true,
		CORSAllowedOrigins: []string{"*"},
	}
}

// ServerConfig represents configuration for the recipe image service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Storage configuration
	DefaultStorageBackend string
	StorageBackends       []StorageBackendConfig
	ObjectKeyNamespace    string // optional "<ns>/" prefix on every object key

	// Authentication
	AuthMode          string // none, hmac, firebase
	JWTSecret         string
	FirebaseProjectID string
	FirebaseCertsURL  string // defaults to Google's published certificates

	// Audit trail
	AuditDatabaseURL string
	AuditDBSchema    string
	AuditAutoMigrate bool

	EnableEventLogging bool
	CORSAllowedOrigins []string
}

// StorageBackendConfig represents configuration for a storage backend
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3", "minio"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	found := false
	for _, backend := range c.StorageBackends {
		if backend.Name == c.DefaultStorageBackend {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default storage backend '%s' not found in configured backends", c.DefaultStorageBackend)
	}

	switch c.AuthMode {
	case AuthModeNone:
	case AuthModeHMAC:
		if c.JWTSecret == "" {
			return errors.New("jwt secret is required for hmac auth")
		}
	case AuthModeFirebase:
		if c.FirebaseProjectID == "" {
			return errors.New("firebase project ID is required for firebase auth")
		}
	default:
		return fmt.Errorf("auth mode must be 'none', 'hmac' or 'firebase', got: %s", c.AuthMode)
	}

	return nil
}

// BuildBlobStore creates the default storage backend
func (c *ServerConfig) BuildBlobStore() (recipecontent.BlobStore, error) {
	for _, backend := range c.StorageBackends {
		if backend.Name == c.DefaultStorageBackend {
			store, err := buildStorageBackend(backend)
			if err != nil {
				return nil, fmt.Errorf("failed to build storage backend %s: %w", backend.Name, err)
			}
			return store, nil
		}
	}
	return nil, fmt.Errorf("default storage backend '%s' not found in configured backends", c.DefaultStorageBackend)
}

// BuildVerifier creates the bearer token verifier. It returns nil when
// authentication is disabled; every request is then anonymous.
func (c *ServerConfig) BuildVerifier() (auth.Verifier, error) {
	switch c.AuthMode {
	case AuthModeHMAC:
		return auth.NewHMACVerifier(c.JWTSecret)
	case AuthModeFirebase:
		return auth.NewFirebaseVerifier(c.FirebaseProjectID, auth.NewGoogleKeySource(c.FirebaseCertsURL, 0))
	case AuthModeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", c.AuthMode)
	}
}

// BuildEventSink creates the event sinks selected by the configuration. The
// returned cleanup releases database connections and is never nil.
func (c *ServerConfig) BuildEventSink(ctx context.Context, logger *slog.Logger) (recipecontent.EventSink, func(), error) {
	var sinks []recipecontent.EventSink
	cleanup := func() {}

	if c.EnableEventLogging {
		sinks = append(sinks, recipecontent.NewLoggingEventSink(logger))
	}

	if c.AuditDatabaseURL != "" {
		if c.AuditAutoMigrate {
			if err := audit.Migrate(ctx, c.AuditDatabaseURL, c.AuditDBSchema); err != nil {
				return nil, cleanup, fmt.Errorf("failed to migrate audit database: %w", err)
			}
		}
		pool, err := audit.Connect(ctx, c.AuditDatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect audit database: %w", err)
		}
		cleanup = pool.Close
		sinks = append(sinks, audit.NewPostgresSink(pool, c.AuditDBSchema))
	}

	switch len(sinks) {
	case 0:
		return recipecontent.NewNoopEventSink(), cleanup, nil
	case 1:
		return sinks[0], cleanup, nil
	default:
		return recipecontent.NewMultiEventSink(sinks...), cleanup, nil
	}
}

// BuildService creates a Service answering authorization questions through
// provider. Call the returned cleanup on shutdown.
func (c *ServerConfig) BuildService(ctx context.Context, provider recipecontent.AuthorizationProvider, logger *slog.Logger) (recipecontent.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := c.BuildBlobStore()
	if err != nil {
		return nil, nil, err
	}

	sink, cleanup, err := c.BuildEventSink(ctx, logger)
	if err != nil {
		return nil, nil, err
	}

	options := []recipecontent.Option{
		recipecontent.WithAuthorization(provider),
		recipecontent.WithBlobStore(store),
		recipecontent.WithEventSink(sink),
		recipecontent.WithLogger(logger),
	}
	if c.ObjectKeyNamespace != "" {
		options = append(options, recipecontent.WithKeyGenerator(objectkey.NewNamespacedGenerator(c.ObjectKeyNamespace)))
	}

	svc, err := recipecontent.New(options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func buildStorageBackend(config StorageBackendConfig) (recipecontent.BlobStore, error) {
	switch config.Type {
	case "memory":
		if prefix := getString(config.Config, "url_prefix", ""); prefix != "" {
			return memorystorage.NewWithURLPrefix(prefix), nil
		}
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/storage"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	case "minio":
		return miniostorage.New(miniostorage.Config{
			Endpoint:               getString(config.Config, "endpoint", ""),
			AccessKey:              getString(config.Config, "access_key", ""),
			SecretKey:              getString(config.Config, "secret_key", ""),
			Bucket:                 getString(config.Config, "bucket", ""),
			Region:                 getString(config.Config, "region", ""),
			UseSSL:                 getBool(config.Config, "use_ssl", false),
			PublicBaseURL:          getString(config.Config, "public_base_url", ""),
			PresignDuration:        time.Duration(getInt(config.Config, "presign_duration", 3600)) * time.Second,
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		if i, ok := value.(int); ok {
			return i
		}
		if str, ok := value.(string); ok {
			if i, err := strconv.Atoi(str); err == nil {
				return i
			}
		}
		if f, ok := value.(float64); ok {
			return int(f)
		}
	}
	return defaultValue
}

func upsertStorageBackend(backends []StorageBackendConfig, backend StorageBackendConfig) []StorageBackendConfig {
	if backend.Config == nil {
		backend.Config = map[string]interface{}{}
	}
	for i := range backends {
		if backends[i].Name == backend.Name {
			backends[i] = backend
			return backends
		}
	}
	return append(backends, backend)
}

// backendConfig returns the config map of the named backend, creating a
// backend of type kind when none exists
func (c *ServerConfig) backendConfig(name, kind string) map[string]interface{} {
	for i := range c.StorageBackends {
		if c.StorageBackends[i].Name == name && c.StorageBackends[i].Type == kind {
			if c.StorageBackends[i].Config == nil {
				c.StorageBackends[i].Config = map[string]interface{}{}
			}
			return c.StorageBackends[i].Config
		}
	}
	backend := StorageBackendConfig{Name: name, Type: kind, Config: map[string]interface{}{}}
	c.StorageBackends = append(c.StorageBackends, backend)
	return backend.Config
}
