// Package config provides the shared viper-backed configuration loader used
// by every ArtStore service binary: values come from a YAML config file,
// environment variables override the keys that file sets, and the
// service's built-in defaults fill whatever is still unset. No CLI flags
// are bound here, and without a config file the environment is not read.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/artstore/artstore/internal/bytesize"
)

// Load reads configPath (or searches the default per-service config
// directory when configPath is empty) and environment variables prefixed
// with envPrefix into a zero-valued T, falling back entirely to defaults
// when no config file exists. Call ApplyDefaults/Validate on the service's
// own config type afterward; Load itself only wires viper and decodes.
func Load[T any](configPath, envPrefix string) (*T, error) {
	v := viper.New()
	setupViper(v, envPrefix, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	var cfg T
	if !found {
		return &cfg, nil
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setupViper wires environment variable support (ENVPREFIX_SECTION_KEY,
// via a "." -> "_" key replacer) and config file
// search: an explicit path if given, or $XDG_CONFIG_HOME/artstore/<prefix
// lowercased>.yaml otherwise.
func setupViper(v *viper.Viper, envPrefix, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(DefaultConfigDir())
	v.SetConfigName(strings.ToLower(envPrefix))
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/artstore, falling back to
// ~/.config/artstore, or the current directory if neither is resolvable.
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "artstore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "artstore")
}

// DefaultConfigPath returns the default config file path for a service
// identified by its lowercase name (e.g. "admin-module").
func DefaultConfigPath(service string) string {
	return filepath.Join(DefaultConfigDir(), service+".yaml")
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		onOffBoolDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// onOffBoolDecodeHook enforces the external-interface rule that boolean
// environment/config values are spelled "on"/"off", not Go's "true"/
// "false" — viper's own env parsing would otherwise silently treat any
// non-empty string as a parse failure for a bool field.
func onOffBoolDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.Bool || from.Kind() != reflect.String {
			return data, nil
		}
		switch strings.ToLower(data.(string)) {
		case "on":
			return true, nil
		case "off", "":
			return false, nil
		default:
			return nil, fmt.Errorf("invalid boolean value %q: must be \"on\" or \"off\"", data)
		}
	}
}
