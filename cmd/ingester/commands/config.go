// Package commands implements the CLI commands for the ingester service
// binary.
package commands

import (
	"fmt"
	"time"

	appconfig "github.com/artstore/artstore/internal/config"
	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/ingester"
	"github.com/artstore/artstore/pkg/unifiedjwt"
	"github.com/redis/go-redis/v9"
)

// Config is the ingester process configuration, decoded from
// $XDG_CONFIG_HOME/artstore/ingester.yaml (or --config), with
// INGESTER_* environment overrides.
type Config struct {
	Port int

	Redis RedisConfig
	JWT   JWTConfig

	PublicKeyPath string
	KeyVersion    string

	AdminModuleURL string
	ClientID       string
	ClientSecret   string

	Logging   LoggingConfig
	Telemetry TelemetryConfig

	ShutdownTimeout time.Duration
}

// RedisConfig configures the Redis connection used to read the
// topology registry the selector chooses storage elements from.
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
		c.Port = 8082
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
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
	if c.PublicKeyPath == "" {
		return fmt.Errorf("public_key_path is required")
	}
	if c.AdminModuleURL == "" {
		return fmt.Errorf("admin_module_url is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret are required for the ingester's own service account")
	}
	return nil
}

// Load reads and decodes the ingester config.
func Load(configPath string) (*Config, error) {
	cfg, err := appconfig.Load[Config](configPath, "INGESTER")
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) serviceConfig() ingester.ServiceConfig {
	return ingester.ServiceConfig{
		Redis: redis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB},
		JWT: unifiedjwt.Config{
			Issuer:               c.JWT.Issuer,
			AccessTokenDuration:  c.JWT.AccessTokenDuration,
			RefreshTokenDuration: c.JWT.RefreshTokenDuration,
		},
		PublicKeyPath:  c.PublicKeyPath,
		KeyVersion:     c.KeyVersion,
		AdminModuleURL: c.AdminModuleURL,
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
	}
}

func (c *Config) loggerConfig() logger.Config {
	return logger.Config{Level: c.Logging.Level, Format: c.Logging.Format, Output: c.Logging.Output}
}

func (c *Config) telemetryConfig(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "ingester",
		ServiceVersion: serviceVersion,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SampleRate:     c.Telemetry.SampleRate,
	}
}
