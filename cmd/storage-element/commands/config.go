// Package commands implements the CLI commands for the storage-element
// service binary.
package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/artstore/artstore/internal/bytesize"
	appconfig "github.com/artstore/artstore/internal/config"
	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/storageelement"
	"github.com/artstore/artstore/pkg/unifiedjwt"
	"github.com/redis/go-redis/v9"
)

func redisOptions(c RedisConfig) redis.Options {
	return redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Config is the storage-element process configuration, decoded from
// $XDG_CONFIG_HOME/artstore/storage-element.yaml (or --config), with
// STORAGE_ELEMENT_* environment variables overriding the keys that file
// sets.
type Config struct {
	// ElementID is this element's stable identity in the admin registry.
	ElementID string

	// Port is the HTTP listen port.
	Port int

	// BasePath is the root directory data files and attr.json sidecars
	// are written under.
	BasePath string
	// WALPath is the badger WAL directory.
	WALPath string

	// StorageType is LOCAL (default) or S3. With S3, data bytes go to
	// the configured bucket while the WAL, attr sidecars, and cache
	// stay under BasePath.
	StorageType string
	S3          S3Config

	Cache CacheConfig
	Redis RedisConfig

	// InitialMode is one of RW, RO, AR.
	InitialMode string

	CapacityBytes        bytesize.ByteSize
	MaxUploadSize        bytesize.ByteSize
	DefaultRetentionDays int

	// CompressibleTypes lists content types stored gzip-compressed; an
	// entry ending in "/" matches as a prefix. Empty disables
	// compression.
	CompressibleTypes []string

	JWT           JWTConfig
	PublicKeyPath string
	KeyVersion    string

	Health HealthConfig

	Logging   LoggingConfig
	Telemetry TelemetryConfig

	ShutdownTimeout time.Duration
}

// S3Config mirrors storageelement.S3Config.
type S3Config struct {
	Bucket          string
	KeyPrefix       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// CacheConfig selects and configures the local cache's relational backend.
type CacheConfig struct {
	UsePostgres bool
	SQLitePath  string
	PostgresDSN string
}

// RedisConfig configures the Redis connection used for topology
// reporting and rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig mirrors unifiedjwt.Config with the durations this layer
// decodes from strings like "15m"/"168h".
type JWTConfig struct {
	Issuer               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// HealthConfig mirrors storageelement.HealthReporterConfig.
type HealthConfig struct {
	Name     string
	APIURL   string
	Priority uint16
	Interval time.Duration
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TelemetryConfig mirrors telemetry.Config.
type TelemetryConfig struct {
	Enabled    bool
	Endpoint   string
	Insecure   bool
	SampleRate float64
}

// ApplyDefaults fills in unset fields with sensible defaults so a bare
// config file (or none at all) still starts the service.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.InitialMode == "" {
		c.InitialMode = "RW"
	}
	if c.Cache.SQLitePath == "" && !c.Cache.UsePostgres {
		c.Cache.SQLitePath = filepath.Join(appconfig.DefaultConfigDir(), c.ElementID+"-cache.db")
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.DefaultRetentionDays == 0 {
		c.DefaultRetentionDays = 365
	}
	if c.Health.Interval == 0 {
		c.Health.Interval = 10 * time.Second
	}
	if c.Health.Priority == 0 {
		c.Health.Priority = 100
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// Validate reports the configuration errors that would otherwise
// surface as a confusing failure deep in storageelement.New.
func (c *Config) Validate() error {
	if c.ElementID == "" {
		return fmt.Errorf("element_id is required")
	}
	if c.BasePath == "" {
		return fmt.Errorf("base_path is required")
	}
	switch storageelement.Mode(c.InitialMode) {
	case storageelement.ModeRW, storageelement.ModeRO, storageelement.ModeAR:
	default:
		return fmt.Errorf("initial_mode must be one of RW, RO, AR, got %q", c.InitialMode)
	}
	if c.PublicKeyPath == "" {
		return fmt.Errorf("public_key_path is required")
	}
	switch c.StorageType {
	case "", "LOCAL":
	case "S3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when storage_type is S3")
		}
	default:
		return fmt.Errorf("storage_type must be LOCAL or S3, got %q", c.StorageType)
	}
	return nil
}

// Load reads and decodes the storage-element config, applying defaults
// but not validating — callers call Validate explicitly.
func Load(configPath string) (*Config, error) {
	cfg, err := appconfig.Load[Config](configPath, "STORAGE_ELEMENT")
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// serviceConfig maps the CLI-facing Config onto storageelement.ServiceConfig.
func (c *Config) serviceConfig() storageelement.ServiceConfig {
	return storageelement.ServiceConfig{
		Element: storageelement.Config{
			ElementID:            c.ElementID,
			BasePath:             c.BasePath,
			WALPath:              c.WALPath,
			CapacityBytes:        int64(c.CapacityBytes),
			MaxUploadSize:        int64(c.MaxUploadSize),
			DefaultRetentionDays: c.DefaultRetentionDays,
			CompressibleTypes:    c.CompressibleTypes,
			InitialMode:          storageelement.Mode(c.InitialMode),
			Cache: storageelement.CacheConfig{
				UsePostgres: c.Cache.UsePostgres,
				SQLitePath:  c.Cache.SQLitePath,
				PostgresDSN: c.Cache.PostgresDSN,
			},
			S3: c.s3Config(),
		},
		Redis: redisOptions(c.Redis),
		JWT: unifiedjwt.Config{
			Issuer:               c.JWT.Issuer,
			AccessTokenDuration:  c.JWT.AccessTokenDuration,
			RefreshTokenDuration: c.JWT.RefreshTokenDuration,
		},
		PublicKeyPath: c.PublicKeyPath,
		KeyVersion:    c.KeyVersion,
		Health: storageelement.HealthReporterConfig{
			Name:     c.Health.Name,
			APIURL:   c.Health.APIURL,
			Priority: c.Health.Priority,
			Interval: c.Health.Interval,
		},
	}
}

func (c *Config) s3Config() *storageelement.S3Config {
	if c.StorageType != "S3" {
		return nil
	}
	return &storageelement.S3Config{
		Bucket:          c.S3.Bucket,
		KeyPrefix:       c.S3.KeyPrefix,
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		ForcePathStyle:  c.S3.ForcePathStyle,
	}
}

func (c *Config) loggerConfig() logger.Config {
	return logger.Config{Level: c.Logging.Level, Format: c.Logging.Format, Output: c.Logging.Output}
}

func (c *Config) telemetryConfig(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "storage-element",
		ServiceVersion: serviceVersion,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SampleRate:     c.Telemetry.SampleRate,
	}
}
