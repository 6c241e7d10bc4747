// Package commands implements the CLI commands for the admin-module
// service binary.
package commands

import (
	"time"

	appconfig "github.com/artstore/artstore/internal/config"
	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/adminmodule"
	"github.com/artstore/artstore/pkg/unifiedjwt"
	"github.com/redis/go-redis/v9"
)

// Config is the admin-module process configuration, decoded from
// $XDG_CONFIG_HOME/artstore/admin-module.yaml (or --config), with
// AUTH_* environment overrides (the admin-module is ArtStore's identity
// and registry authority, hence the AUTH_ prefix rather than APP_).
type Config struct {
	Port int

	Store adminmodule.StoreConfig
	Redis RedisConfig
	JWT   JWTConfig

	Logging   LoggingConfig
	Telemetry TelemetryConfig

	ShutdownTimeout time.Duration
}

// RedisConfig configures the Redis connection shared by the topology
// bus, the event producer, and the key-rotation distributed lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig mirrors unifiedjwt.Config.
type JWTConfig struct {
	Issuer               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
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

// ApplyDefaults fills in unset fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	c.Store.ApplyDefaults()
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "artstore"
	}
	if c.JWT.AccessTokenDuration == 0 {
		c.JWT.AccessTokenDuration = 15 * time.Minute
	}
	if c.JWT.RefreshTokenDuration == 0 {
		c.JWT.RefreshTokenDuration = 7 * 24 * time.Hour
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

// Validate reports configuration errors.
func (c *Config) Validate() error {
	return c.Store.Validate()
}

// Load reads and decodes the admin-module config.
func Load(configPath string) (*Config, error) {
	cfg, err := appconfig.Load[Config](configPath, "AUTH")
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) serviceConfig() adminmodule.Config {
	return adminmodule.Config{
		Store: c.Store,
		Redis: redis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB},
		JWT: unifiedjwt.Config{
			Issuer:               c.JWT.Issuer,
			AccessTokenDuration:  c.JWT.AccessTokenDuration,
			RefreshTokenDuration: c.JWT.RefreshTokenDuration,
		},
	}
}

func (c *Config) loggerConfig() logger.Config {
	return logger.Config{Level: c.Logging.Level, Format: c.Logging.Format, Output: c.Logging.Output}
}

func (c *Config) telemetryConfig(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "admin-module",
		ServiceVersion: serviceVersion,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SampleRate:     c.Telemetry.SampleRate,
	}
}
