package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/database"
	filekeephttp "github.com/sagarc03/filekeep/http"
	"github.com/sagarc03/filekeep/keybackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for filekeep.
type Config struct {
	Env      string                  `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Server   ServerConfig            `mapstructure:"server"`
	Database DatabaseConfig          `mapstructure:"database"`
	Auth     AuthConfig              `mapstructure:"auth"`
	CORS     filekeephttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxBodyBytes    int64 `mapstructure:"max_body_bytes" validate:"min=0"`
	ShutdownTimeout int   `mapstructure:"shutdown_timeout" validate:"min=1"` // seconds
}

// DatabaseConfig selects the record backend.
type DatabaseConfig struct {
	database.Config `mapstructure:",squash"`
	AutoMigrate     bool `mapstructure:"auto_migrate"`
}

// AuthConfig decides how the calling account is identified.
//
// In "signature" mode callers sign requests with one of the configured keys.
// In "header" mode a trusted proxy names the caller in Header.
type AuthConfig struct {
	Mode   string                `mapstructure:"mode" validate:"required,oneof=signature header"`
	Read   string                `mapstructure:"read" validate:"required,oneof=public private"`
	Header string                `mapstructure:"header" validate:"required_if=Mode header"`
	AWS    filekeep.AuthConfig   `mapstructure:"aws"`
	Keys   keybackend.KeysConfig `mapstructure:"keys"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagKeys renames CLI flags whose names differ from their config key.
var flagKeys = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"auto-migrate": "database.auto_migrate",
	"port":         "server.port",
	"auth-mode":    "auth.mode",
}

var defaults = map[string]any{
	"env": "dev",

	"server.port":             5710,
	"server.max_body_bytes":   filekeephttp.DefaultMaxBodyBytes,
	"server.shutdown_timeout": 30,

	"database.type":         "sqlite",
	"database.dsn":          "filekeep.db",
	"database.tables.files": "filekeep_files",
	"database.auto_migrate": true,

	"auth.mode":        "signature",
	"auth.read":        "public",
	"auth.header":      "X-Filekeep-Caller",
	"auth.aws.region":  "us-east-1",
	"auth.aws.service": "filekeep",

	"cors.enabled": false,

	"log.level": "info",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration from, lowest precedence first: defaults,
// configFiles merged left to right (or ./config.yaml when none are given),
// FILEKEEP_* environment variables and the explicitly set flags.
// Unreadable config files are logged and skipped. flags may be nil.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	readFiles(v, configFiles)

	v.SetEnvPrefix("FILEKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			key := f.Name
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			_ = v.BindPFlag(key, f)
		})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct constraints and the table names.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Database.Tables.Validate()
}

func readFiles(v *viper.Viper, files []string) {
	if len(files) == 0 {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			slog.Warn("skipping config file", "err", err)
		}
		return
	}

	for i, file := range files {
		v.SetConfigFile(file)
		read := v.MergeInConfig
		if i == 0 {
			read = v.ReadInConfig
		}
		if err := read(); err != nil {
			slog.Warn("skipping config file", "file", file, "err", err)
		}
	}
}
