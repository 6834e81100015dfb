// Package config loads pivot server configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pivotsvc/internal/models"
)

// Sentinel validation errors.
var (
	ErrInvalidPort     = errors.New("invalid server port")
	ErrInvalidPageSize = errors.New("row page max size must be positive")
	ErrInvalidLevel    = errors.New("invalid log level")
	ErrInvalidFormat   = errors.New("invalid log format")
)

// Default configuration values.
const (
	defaultPort           = 8080
	defaultHost           = "0.0.0.0"
	defaultRowPageMaxSize = 100
	maxPort               = 65535
)

// EnvPrefix is the prefix of environment variables, for example PIVOT_SERVER_PORT.
const EnvPrefix = "PIVOT"

// Config holds all configuration of the pivot server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Logging LoggingConfig `mapstructure:"logging"`
	Service ServiceConfig `mapstructure:"service"`
}

// ServerConfig holds http server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`
}

// DataConfig holds output table data source.
type DataConfig struct {
	Path     string        `mapstructure:"path"`   // CSV file
	Layout   string        `mapstructure:"layout"` // yaml pivot layout, default layout if empty
	Workers  int           `mapstructure:"workers"`
	Watch    bool          `mapstructure:"watch"` // reload data on file change
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// ServiceConfig holds model server settings reported to the UI.
type ServiceConfig struct {
	RootDir        string            `mapstructure:"root_dir"`
	RowPageMaxSize int64             `mapstructure:"row_page_max_size"`
	AllowUserHome  bool              `mapstructure:"allow_user_home"`
	AllowDownload  bool              `mapstructure:"allow_download"`
	Env            map[string]string `mapstructure:"env"`
}

// Read loads configuration from file and environment variables into v,
// flags bound to v before the call override file values.
func Read(v *viper.Viper, configPath string) (*Config, error) {
	// Set defaults.
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pivot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read environment variables.
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Unmarshal(v)
}

// Unmarshal decodes and validates configuration from viper instance.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SetDefaults sets default configuration values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", defaultHost)
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.metrics", true)

	v.SetDefault("data.path", "")
	v.SetDefault("data.layout", "")
	v.SetDefault("data.workers", 0)
	v.SetDefault("data.watch", false)
	v.SetDefault("data.debounce", "200ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("service.root_dir", "")
	v.SetDefault("service.row_page_max_size", defaultRowPageMaxSize)
	v.SetDefault("service.allow_user_home", false)
	v.SetDefault("service.allow_download", false)
}

// Validate checks configuration values.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Server.Port)
	}
	if cfg.Service.RowPageMaxSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, cfg.Service.RowPageMaxSize)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLevel, cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Logging.Format)
	}
	return nil
}

// Addr is server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServiceConfig returns server settings in the form expected by the UI.
func (c *Config) ServiceConfig() models.ServiceConfig {
	sc := models.EmptyConfig()
	sc.RootDir = c.Service.RootDir
	sc.RowPageMaxSize = c.Service.RowPageMaxSize
	sc.AllowUserHome = c.Service.AllowUserHome
	sc.AllowDownload = c.Service.AllowDownload
	for k, v := range c.Service.Env {
		sc.Env[k] = v
	}
	return sc
}
