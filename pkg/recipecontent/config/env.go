package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig is the environment surface read by WithEnv.
//
// STORAGE_URL selects the default backend:
//
//	memory://                                        in-memory (default)
//	file:///path/to/data                             filesystem
//	s3://bucket?region=us-east-1&endpoint=...&path_style=true
//	minio://bucket?endpoint=localhost:9000&ssl=false&public_base=https://cdn...
//
// AUTH_MODE is one of none, hmac (AUTH_JWT_SECRET) or firebase (FIREBASE_PROJECT_ID).
type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	StorageURL         string `env:"STORAGE_URL" env-default:"memory://"`
	ObjectKeyNamespace string `env:"OBJECT_KEY_NAMESPACE"`
	CreateBucket       bool   `env:"STORAGE_CREATE_BUCKET" env-default:"false"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`
	MinioAccessKey     string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey     string `env:"MINIO_SECRET_KEY"`

	AuthMode          string `env:"AUTH_MODE" env-default:"none"`
	JWTSecret         string `env:"AUTH_JWT_SECRET"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`

	AuditDatabaseURL string `env:"AUDIT_DATABASE_URL"`
	AuditDBSchema    string `env:"AUDIT_DB_SCHEMA" env-default:"recipe"`
	AuditAutoMigrate bool   `env:"AUDIT_AUTO_MIGRATE" env-default:"false"`

	EnableEventLogging bool     `env:"ENABLE_EVENT_LOGGING" env-default:"true"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// WithEnv applies configuration read from the process environment
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env EnvConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

func (e EnvConfig) apply(c *ServerConfig) error {
	if e.Port != "" {
		c.Port = e.Port
	}
	if e.Environment != "" {
		c.Environment = e.Environment
	}

	if err := e.applyStorage(c); err != nil {
		return err
	}
	c.ObjectKeyNamespace = e.ObjectKeyNamespace

	if e.AuthMode != "" {
		c.AuthMode = strings.ToLower(e.AuthMode)
	}
	c.JWTSecret = e.JWTSecret
	c.FirebaseProjectID = e.FirebaseProjectID

	c.AuditDatabaseURL = e.AuditDatabaseURL
	if e.AuditDBSchema != "" {
		c.AuditDBSchema = e.AuditDBSchema
	}
	c.AuditAutoMigrate = e.AuditAutoMigrate

	c.EnableEventLogging = e.EnableEventLogging
	if len(e.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = e.CORSAllowedOrigins
	}
	return nil
}

// applyStorage configures the default backend from STORAGE_URL
func (e EnvConfig) applyStorage(c *ServerConfig) error {
	raw := e.StorageURL
	if raw == "" || raw == "memory" || raw == "memory://" {
		c.DefaultStorageBackend = "memory"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{Name: "memory", Type: "memory"})
		return nil
	}

	// file:// paths are taken verbatim so relative directories keep working
	if path, ok := strings.CutPrefix(raw, "file://"); ok {
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.DefaultStorageBackend = "fs"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name:   "fs",
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": path},
		})
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "s3":
		return e.applyS3(u, c)
	case "minio":
		return e.applyMinio(u, c)
	}
	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', 's3://...' or 'minio://...')", raw)
}

// Format: s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true
func (e EnvConfig) applyS3(u *url.URL, c *ServerConfig) error {
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}
	q := u.Query()

	region := q.Get("region")
	if region == "" {
		region = e.AWSRegion
	}
	if region == "" {
		region = "us-east-1"
	}

	backend := StorageBackendConfig{
		Name: "s3",
		Type: "s3",
		Config: map[string]interface{}{
			"bucket": u.Host,
			"region": region,
		},
	}
	if v := q.Get("endpoint"); v != "" {
		backend.Config["endpoint"] = v
	}
	if v := q.Get("path_style"); v != "" {
		backend.Config["use_path_style"] = v
	}
	if v := q.Get("sse"); v != "" {
		backend.Config["enable_sse"] = true
		backend.Config["sse_algorithm"] = v
	}
	if e.AWSAccessKeyID != "" && e.AWSSecretAccessKey != "" {
		backend.Config["access_key_id"] = e.AWSAccessKeyID
		backend.Config["secret_access_key"] = e.AWSSecretAccessKey
	}
	if e.CreateBucket {
		backend.Config["create_bucket_if_not_exist"] = true
	}

	c.DefaultStorageBackend = "s3"
	c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
	return nil
}

// Format: minio://bucket?endpoint=localhost:9000&ssl=false&public_base=http://localhost:9000/bucket
func (e EnvConfig) applyMinio(u *url.URL, c *ServerConfig) error {
	if u.Host == "" {
		return fmt.Errorf("MinIO bucket name cannot be empty in STORAGE_URL")
	}
	q := u.Query()
	if q.Get("endpoint") == "" {
		return fmt.Errorf("MinIO endpoint is required in STORAGE_URL")
	}

	backend := StorageBackendConfig{
		Name: "minio",
		Type: "minio",
		Config: map[string]interface{}{
			"bucket":     u.Host,
			"endpoint":   q.Get("endpoint"),
			"access_key": e.MinioAccessKey,
			"secret_key": e.MinioSecretKey,
		},
	}
	if v := q.Get("ssl"); v != "" {
		backend.Config["use_ssl"] = v
	}
	if v := q.Get("region"); v != "" {
		backend.Config["region"] = v
	}
	if v := q.Get("public_base"); v != "" {
		backend.Config["public_base_url"] = v
	}
	if e.CreateBucket {
		backend.Config["create_bucket_if_not_exist"] = true
	}

	c.DefaultStorageBackend = "minio"
	c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
	return nil
}
