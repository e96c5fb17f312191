// Package config defines the application configuration and loads it from a
// YAML file, an optional .env file and MORTGAGE_ prefixed environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Configuration holds all configuration for mortgage-calculator.
type Configuration struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging,omitempty"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output,omitempty"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server,omitempty"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache,omitempty"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage,omitempty"`
	Tables  TablesConfig  `mapstructure:"tables" yaml:"tables,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, json
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address,omitempty"`
	// MaxRequestSize is a human size such as "64K" or "1M".
	MaxRequestSize string          `mapstructure:"maxRequestSize" yaml:"maxRequestSize,omitempty"`
	ReadTimeout    time.Duration   `mapstructure:"readTimeout" yaml:"readTimeout,omitempty"`
	WriteTimeout   time.Duration   `mapstructure:"writeTimeout" yaml:"writeTimeout,omitempty"`
	RateLimit      RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit,omitempty"`
}

// RateLimitConfig is applied per client address. A zero rate disables
// limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond" yaml:"requestsPerSecond,omitempty"`
	Burst             int     `mapstructure:"burst" yaml:"burst,omitempty"`
}

// CacheConfig selects where calculation results are cached.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend,omitempty"` // none, memory, redis
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
	RedisAddress  string        `mapstructure:"redisAddress" yaml:"redisAddress,omitempty"`
	RedisPassword string        `mapstructure:"redisPassword" yaml:"redisPassword,omitempty"`
	RedisDB       int           `mapstructure:"redisDb" yaml:"redisDb,omitempty"`
}

// StorageConfig points at the sqlite database recording rate table
// versions. An empty path disables storage.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// TablesConfig locates the rate tables. With no path the built-in tables
// are used.
type TablesConfig struct {
	Path  string `mapstructure:"path" yaml:"path,omitempty"`
	Watch bool   `mapstructure:"watch" yaml:"watch,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxRequestSize", fmt.Sprintf("%d", constants.DefaultMaxRequestSizeBytes))
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.rateLimit.requestsPerSecond", constants.DefaultRequestsPerSecond)
	v.SetDefault("server.rateLimit.burst", constants.DefaultBurst)
	v.SetDefault("cache.backend", CacheNone)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.redisAddress", "localhost:6379")
	v.SetDefault("cache.redisPassword", "")
	v.SetDefault("cache.redisDb", 0)
	v.SetDefault("storage.path", "")
	v.SetDefault("tables.path", "")
	v.SetDefault("tables.watch", false)
}

// LoadConfiguration reads the YAML configuration at configPath. A missing
// file is not an error: defaults and environment variables still apply.
// Variables in a .env file in the working directory are loaded first and
// never override variables already set.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file, %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.Cache.Backend = strings.ToLower(strings.TrimSpace(configuration.Cache.Backend))
	return &configuration, nil
}

// Validate reports every invalid setting.
func (c *Configuration) Validate() error {
	var errs error
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.level: invalid log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format: invalid log format %q", c.Logging.Format))
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("output.format: %w", err))
		}
	}
	switch c.Cache.Backend {
	case "", CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddress == "" {
			errs = multierr.Append(errs, errors.New("cache.redisAddress is required for the redis backend"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("cache.backend: expected %s, %s or %s, got %q",
			CacheNone, CacheMemory, CacheRedis, c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = multierr.Append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		errs = multierr.Append(errs, errors.New("server.rateLimit values must not be negative"))
	}
	if c.Tables.Watch && c.Tables.Path == "" {
		errs = multierr.Append(errs, errors.New("tables.watch requires tables.path"))
	}
	return errs
}
