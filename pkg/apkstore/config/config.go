// Package config assembles an apkstore service from declarative
// configuration. Programmatic options set everything explicitly; WithEnv
// layers the simplified environment mapping on top.
package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphastore/apkstore/pkg/apkstore"
	repomemory "github.com/alphastore/apkstore/pkg/apkstore/repo/memory"
	repopg "github.com/alphastore/apkstore/pkg/apkstore/repo/postgres"
	fsstorage "github.com/alphastore/apkstore/pkg/apkstore/storage/fs"
	memorystorage "github.com/alphastore/apkstore/pkg/apkstore/storage/memory"
	s3storage "github.com/alphastore/apkstore/pkg/apkstore/storage/s3"
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
		DatabaseType:          "memory",
		DBSchema:              "apkstore",
		DefaultStorageBackend: "memory",
		StorageBackends: []StorageBackendConfig{
			{
				Name:   "memory",
				Type:   "memory",
				Config: map[string]interface{}{},
			},
		},
		MaxUploadBytes:     apkstore.DefaultMaxArtifactSize,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the apkstore service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: apkstore)

	// Storage configuration
	DefaultStorageBackend string
	StorageBackends       []StorageBackendConfig

	// Admin gate for uploads and reconciliation
	AdminCode string

	// Upload limits
	MaxUploadBytes       int64
	AllowedArtifactTypes []string

	// HTTP surface
	AllowedOrigins []string
	PublicBaseURL  string

	EnableEventLogging bool
}

// StorageBackendConfig represents configuration for a storage backend
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Stack bundles the built service with the components cmd wiring needs
// direct access to (the admin reconciler takes the catalog and backends).
type Stack struct {
	Service    apkstore.Service
	Catalog    apkstore.Catalog
	BlobStores map[string]apkstore.BlobStore
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}

	// Ensure default storage backend exists in configured backends
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

	return nil
}

// BuildStack creates the service plus the catalog and blob stores it was
// built from
func (c *ServerConfig) BuildStack() (*Stack, error) {
	catalog, err := c.buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	options := []apkstore.Option{
		apkstore.WithCatalog(catalog),
		apkstore.WithMaxArtifactSize(c.MaxUploadBytes),
	}

	blobStores := make(map[string]apkstore.BlobStore, len(c.StorageBackends))
	for _, backendConfig := range c.StorageBackends {
		store, err := c.buildStorageBackend(backendConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build storage backend %s: %w", backendConfig.Name, err)
		}
		blobStores[backendConfig.Name] = store
		options = append(options, apkstore.WithBlobStore(backendConfig.Name, store))
	}
	options = append(options, apkstore.WithDefaultBackend(c.DefaultStorageBackend))

	if len(c.AllowedArtifactTypes) > 0 {
		options = append(options, apkstore.WithAllowedArtifactTypes(c.AllowedArtifactTypes))
	}

	if c.EnableEventLogging {
		options = append(options, apkstore.WithEventSink(apkstore.NewLogEventSink(nil)))
	}

	svc, err := apkstore.New(options...)
	if err != nil {
		return nil, err
	}

	return &Stack{
		Service:    svc,
		Catalog:    catalog,
		BlobStores: blobStores,
	}, nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (apkstore.Service, error) {
	stack, err := c.BuildStack()
	if err != nil {
		return nil, err
	}
	return stack.Service, nil
}

// buildCatalog creates a Catalog based on the configuration
func (c *ServerConfig) buildCatalog() (apkstore.Catalog, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// PingPostgres verifies connectivity to Postgres and optionally sets search_path for the session.
// It fails if the schema (when provided) does not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend(config StorageBackendConfig) (apkstore.BlobStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/storage"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		}
		return s3storage.New(s3Config)

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
