package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDefaultStorage sets the default storage backend name
func WithDefaultStorage(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("default storage backend name cannot be empty")
		}
		c.DefaultStorageBackend = name
		return nil
	}
}

// WithMemoryStorage adds an in-memory storage backend.
// If name is empty, defaults to "memory"
func WithMemoryStorage(name, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "memory"
		}
		backend := StorageBackendConfig{Name: name, Type: "memory", Config: map[string]interface{}{}}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
		return nil
	}
}

// WithFilesystemStorage adds a filesystem storage backend.
// If name is empty, defaults to "fs"
func WithFilesystemStorage(name, baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "fs"
		}
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}

		backend := StorageBackendConfig{
			Name: name,
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}

		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
		return nil
	}
}

// WithS3Storage adds an S3 storage backend.
// If name is empty, defaults to "s3"
func WithS3Storage(name, bucket, region string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}

		cfg := c.backendConfig(name, "s3")
		cfg["bucket"] = bucket
		cfg["region"] = region
		return nil
	}
}

// WithS3Credentials sets static AWS credentials for S3 storage
func WithS3Credentials(name, accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		cfg := c.backendConfig(name, "s3")
		cfg["access_key_id"] = accessKeyID
		cfg["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint sets a custom S3 endpoint (for MinIO, LocalStack, etc.)
func WithS3Endpoint(name, endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		cfg := c.backendConfig(name, "s3")
		cfg["endpoint"] = endpoint
		cfg["use_path_style"] = usePathStyle
		return nil
	}
}

// WithS3Encryption enables server-side encryption for S3 storage
func WithS3Encryption(name, algorithm, kmsKeyID string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		if algorithm != "AES256" && algorithm != "aws:kms" {
			return fmt.Errorf("SSE algorithm must be 'AES256' or 'aws:kms', got: %s", algorithm)
		}
		cfg := c.backendConfig(name, "s3")
		cfg["enable_sse"] = true
		cfg["sse_algorithm"] = algorithm
		if kmsKeyID != "" {
			cfg["sse_kms_key_id"] = kmsKeyID
		}
		return nil
	}
}

// WithMinioStorage adds a MinIO storage backend.
// If name is empty, defaults to "minio"
func WithMinioStorage(name, endpoint, bucket, accessKey, secretKey string, useSSL bool) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "minio"
		}
		if endpoint == "" {
			return fmt.Errorf("MinIO endpoint cannot be empty")
		}
		if bucket == "" {
			return fmt.Errorf("MinIO bucket cannot be empty")
		}

		cfg := c.backendConfig(name, "minio")
		cfg["endpoint"] = endpoint
		cfg["bucket"] = bucket
		cfg["access_key"] = accessKey
		cfg["secret_key"] = secretKey
		cfg["use_ssl"] = useSSL
		return nil
	}
}

// WithMinioPublicBaseURL serves MinIO objects from a public base URL instead of presigning
func WithMinioPublicBaseURL(name, baseURL string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "minio"
		}
		c.backendConfig(name, "minio")["public_base_url"] = baseURL
		return nil
	}
}

// WithCreateBucket makes an s3 or minio backend create its bucket on first use
func WithCreateBucket(name string) Option {
	return func(c *ServerConfig) error {
		for i := range c.StorageBackends {
			b := &c.StorageBackends[i]
			if b.Name == name && (b.Type == "s3" || b.Type == "minio") {
				b.Config["create_bucket_if_not_exist"] = true
				return nil
			}
		}
		return fmt.Errorf("no s3 or minio storage backend named '%s'", name)
	}
}

// WithObjectKeyNamespace stores every object under "<namespace>/"
func WithObjectKeyNamespace(namespace string) Option {
	return func(c *ServerConfig) error {
		c.ObjectKeyNamespace = namespace
		return nil
	}
}

// WithHMACAuth verifies bearer tokens signed with a shared HS256 secret
func WithHMACAuth(secret string) Option {
	return func(c *ServerConfig) error {
		if secret == "" {
			return fmt.Errorf("jwt secret cannot be empty")
		}
		c.AuthMode = AuthModeHMAC
		c.JWTSecret = secret
		return nil
	}
}

// WithFirebaseAuth verifies Firebase ID tokens issued for projectID
func WithFirebaseAuth(projectID string) Option {
	return func(c *ServerConfig) error {
		if projectID == "" {
			return fmt.Errorf("firebase project ID cannot be empty")
		}
		c.AuthMode = AuthModeFirebase
		c.FirebaseProjectID = projectID
		return nil
	}
}

// WithNoAuth treats every request as anonymous
func WithNoAuth() Option {
	return func(c *ServerConfig) error {
		c.AuthMode = AuthModeNone
		return nil
	}
}

// WithAuditDatabase records image events in Postgres
func WithAuditDatabase(url, schema string) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("audit database URL cannot be empty")
		}
		c.AuditDatabaseURL = url
		if schema != "" {
			c.AuditDBSchema = schema
		}
		return nil
	}
}

// WithAuditAutoMigrate applies the audit schema migrations at startup
func WithAuditAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AuditAutoMigrate = enabled
		return nil
	}
}

// WithEventLogging enables or disables logging of image events
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithCORSOrigins sets the origins allowed to call the HTTP API
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSAllowedOrigins = origins
		return nil
	}
}
