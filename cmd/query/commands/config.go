// Package commands implements the CLI commands for the query service
// binary.
package commands

import (
	"fmt"
	"os"
	"time"

	appconfig "github.com/artstore/artstore/internal/config"
	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/query"
	"github.com/artstore/artstore/pkg/unifiedjwt"
	"github.com/redis/go-redis/v9"
)

// Config is the query process configuration, decoded from
// $XDG_CONFIG_HOME/artstore/query.yaml (or --config), with QUERY_*
// environment overrides.
type Config struct {
	Port int

	Postgres query.PostgresConfig
	Redis    RedisConfig
	JWT      JWTConfig

	PublicKeyPath string
	KeyVersion    string

	AdminModuleURL string
	ClientID       string
	ClientSecret   string

	ConsumerGroup string
	ConsumerName  string

	Logging   LoggingConfig
	Telemetry TelemetryConfig

	ShutdownTimeout time.Duration
}

// RedisConfig configures the Redis connection used for the topology
// registry lookup (download redirects) and the file-events stream.
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
		c.Port = 8083
	}
	c.Postgres.ApplyDefaults()
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "query"
	}
	if c.ConsumerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "query"
		}
		c.ConsumerName = hostname
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
	if err := c.Postgres.Validate(); err != nil {
		return err
	}
	if c.PublicKeyPath == "" {
		return fmt.Errorf("public_key_path is required")
	}
	if c.AdminModuleURL == "" {
		return fmt.Errorf("admin_module_url is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret are required for the query service's own service account")
	}
	return nil
}

// Load reads and decodes the query config.
func Load(configPath string) (*Config, error) {
	cfg, err := appconfig.Load[Config](configPath, "QUERY")
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) serviceConfig() query.ServiceConfig {
	return query.ServiceConfig{
		Postgres: c.Postgres,
		Redis:    redis.Options{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB},
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
		ConsumerGroup:  c.ConsumerGroup,
		ConsumerName:   c.ConsumerName,
	}
}

func (c *Config) loggerConfig() logger.Config {
	return logger.Config{Level: c.Logging.Level, Format: c.Logging.Format, Output: c.Logging.Output}
}

func (c *Config) telemetryConfig(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "query",
		ServiceVersion: serviceVersion,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SampleRate:     c.Telemetry.SampleRate,
	}
}
